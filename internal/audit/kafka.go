package audit

import (
	"context"
	"encoding/json"
	"fmt"
)

// Producer writes one keyed record. *kafka.Client implements it.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaSink publishes events as JSON records keyed by subject id, so one
// examinee's events stay ordered within a partition.
type KafkaSink struct {
	producer Producer
}

func NewKafkaSink(producer Producer) (*KafkaSink, error) {
	if producer == nil {
		return nil, fmt.Errorf("kafka producer is required")
	}
	return &KafkaSink{producer: producer}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, []byte(event.SubjectID), payload)
}
