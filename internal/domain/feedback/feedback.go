package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const maxMessageLen = 4000

var (
	// ErrEmptyMessage is returned when the feedback message is blank.
	ErrEmptyMessage = errors.New("message required")
	// ErrMessageTooLong is returned when the message exceeds maxMessageLen.
	ErrMessageTooLong = errors.New("message too long")
	// ErrInvalidEmail is returned when a reply address is present but malformed.
	ErrInvalidEmail = errors.New("invalid email address")
)

// Entry is one submitted feedback form.
type Entry struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// Sink persists feedback entries.
type Sink interface {
	Record(ctx context.Context, e *Entry) error
}

// Service validates and records feedback submissions.
type Service struct {
	sink Sink
	now  func() time.Time
}

// NewService creates a feedback Service over the given sink.
func NewService(sink Sink) *Service {
	return &Service{sink: sink, now: time.Now}
}

// Submit validates the form fields and records the entry. The email is
// optional; when present it must look like an address.
func (s *Service) Submit(ctx context.Context, name, email, message string) (*Entry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len(message) > maxMessageLen {
		return nil, ErrMessageTooLong
	}
	if email != "" {
		at := strings.IndexByte(email, '@')
		if at <= 0 || at == len(email)-1 {
			return nil, ErrInvalidEmail
		}
	}

	e := &Entry{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.sink.Record(ctx, e); err != nil {
		return nil, errors.Wrap(err, "record feedback")
	}
	return e, nil
}
