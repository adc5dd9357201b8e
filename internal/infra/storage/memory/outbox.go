package memory

import (
	"context"
	"sync"

	appoutbox "rentnow/internal/app/outbox"
)

// OutboxSink keeps flushed event records in memory. Dev mode and tests read
// them back through Records.
type OutboxSink struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutboxSink() *OutboxSink {
	return &OutboxSink{}
}

func (o *OutboxSink) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

// Records returns a copy of everything added so far.
func (o *OutboxSink) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

// Names lists record names in insertion order.
func (o *OutboxSink) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.records))
	for _, r := range o.records {
		names = append(names, r.Name)
	}
	return names
}

var _ appoutbox.Sink = (*OutboxSink)(nil)
