package memory

import (
	"context"
	"sync"

	"github.com/tramline/merch-shop/internal/domain/feedback"
)

var _ feedback.Sink = (*FeedbackLog)(nil)

// FeedbackLog collects feedback entries in memory.
type FeedbackLog struct {
	mu      sync.Mutex
	entries []*feedback.Entry
}

// NewFeedbackLog creates an empty feedback log.
func NewFeedbackLog() *FeedbackLog {
	return &FeedbackLog{}
}

// Record appends the entry.
func (f *FeedbackLog) Record(_ context.Context, e *feedback.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

// Entries returns a copy of all recorded entries, oldest first.
func (f *FeedbackLog) Entries() []*feedback.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*feedback.Entry, len(f.entries))
	copy(out, f.entries)
	return out
}
