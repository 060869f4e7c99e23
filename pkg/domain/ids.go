package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ErrInvalidID is returned (wrapped) when an identifier fails parsing.
var ErrInvalidID = errors.New("invalid identifier")

const maxSubjectIDLength = 64

// SubjectID is the opaque examinee identifier (a roll number in practice).
// It is passed through to the verification service untouched; nothing in
// this module interprets it beyond these parse-time checks.
type SubjectID string

// SessionID identifies one exam attempt.
type SessionID uuid.UUID

// ParseSubjectID validates an examinee identifier at the trust boundary.
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: subject id is required", ErrInvalidID)
	}
	if len(s) > maxSubjectIDLength {
		return "", fmt.Errorf("%w: subject id longer than %d bytes", ErrInvalidID, maxSubjectIDLength)
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: subject id contains %q", ErrInvalidID, r)
		}
	}
	return SubjectID(s), nil
}

func (id SubjectID) String() string {
	return string(id)
}

func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID rejects malformed and nil UUIDs.
func ParseSessionID(s string) (SessionID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("%w: session id: %v", ErrInvalidID, err)
	}
	if parsed == uuid.Nil {
		return SessionID{}, fmt.Errorf("%w: session id is nil", ErrInvalidID)
	}
	return SessionID(parsed), nil
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

func (id SessionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id SessionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
