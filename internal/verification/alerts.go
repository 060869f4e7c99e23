package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"proctor/pkg/domain"
)

// alertCapability labels alert-log failures; it is not a frame capability.
const alertCapability Capability = "log_alert"

const alertPath = "/log-alert"

// Alert is one head-movement alert as the service stores it.
type Alert struct {
	SubjectID domain.SubjectID `json:"student_id"`
	Direction string           `json:"direction"`
	Time      time.Time        `json:"time"`
}

// LogAlert posts alert to the service's alert log. Failures are returned as
// *TransportError and never affect the exam.
func (c *HTTPClient) LogAlert(ctx context.Context, alert Alert) error {
	if alert.SubjectID == "" {
		return fmt.Errorf("%w: %s", ErrSubjectRequired, alertCapability)
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return newTransportError(ErrorBadData, alertCapability, "encode alert", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+alertPath, bytes.NewReader(payload))
	if err != nil {
		return newTransportError(ErrorUnavailable, alertCapability, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req, alertCapability, alert.SubjectID.String()); err != nil {
		return newTransportError(ErrorUnavailable, alertCapability, "sign request", err)
	}

	start := time.Now()
	err = c.do(req, alertCapability, nil)
	result := "ok"
	if err != nil {
		result = "error_" + string(GetCategory(err))
	}
	c.metrics.ObserveVerification(string(alertCapability), result, time.Since(start))
	return err
}
