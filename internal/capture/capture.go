// Package capture provides still frames from the examinee's camera.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Capture failures. Callers treat every capture error as "no frame this
// tick"; none of them is ever a violation.
var (
	ErrNoFrame    = errors.New("no frame available")
	ErrStaleFrame = errors.New("latest frame is stale")
)

// Frame is one encoded still image.
type Frame struct {
	Data        []byte
	ContentType string
	Name        string
	CapturedAt  time.Time
}

// Empty reports whether the frame carries no image bytes.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

// Source produces frames on demand. Implementations must be safe for
// concurrent use; each Capture is independent and does not mutate the
// device.
type Source interface {
	Capture(ctx context.Context) (Frame, error)
}

// FileSource serves the same image file on every capture. Useful for
// registration from a prepared photo and for development without a camera.
type FileSource struct {
	Path string
}

func (s FileSource) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	return readFrame(s.Path)
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func isImage(path string) bool {
	_, ok := imageTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

func readFrame(path string) (Frame, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: %s is empty", ErrNoFrame, filepath.Base(path))
	}
	contentType := imageTypes[strings.ToLower(filepath.Ext(path))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Frame{
		Data:        data,
		ContentType: contentType,
		Name:        filepath.Base(path),
		CapturedAt:  info.ModTime(),
	}, nil
}
