package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentnow/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Sink persists records for the relay worker.
type Sink interface {
	Add(ctx context.Context, record EventRecord) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Drain records and clears the pending events of an aggregate.
func Drain(ctx context.Context, box Outbox, encoder EventEncoder, aggregate interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}) error {
	pending := aggregate.PendingEvents()
	aggregate.ClearEvents()
	return RecordDomainEvents(ctx, box, encoder, pending)
}

var ErrNoSink = errors.New("outbox: sink required")

type bufferKey struct{}

type buffer struct {
	mu      sync.Mutex
	records []EventRecord
}

// Buffered holds records added during a command in a per-request buffer and
// hands them to the sink on Flush, after the transaction committed.
// Without a buffer in ctx, Add writes straight to the sink.
type Buffered struct {
	sink Sink
}

func NewBuffered(sink Sink) *Buffered {
	if sink == nil {
		panic(ErrNoSink)
	}
	return &Buffered{sink: sink}
}

// WithBuffer starts a buffer for one command dispatch.
func WithBuffer(ctx context.Context) context.Context {
	if _, ok := ctx.Value(bufferKey{}).(*buffer); ok {
		return ctx
	}
	return context.WithValue(ctx, bufferKey{}, &buffer{})
}

func (b *Buffered) Add(ctx context.Context, record EventRecord) error {
	buf, ok := ctx.Value(bufferKey{}).(*buffer)
	if !ok {
		return b.sink.Add(ctx, record)
	}
	buf.mu.Lock()
	buf.records = append(buf.records, record)
	buf.mu.Unlock()
	return nil
}

func (b *Buffered) Flush(ctx context.Context) error {
	buf, ok := ctx.Value(bufferKey{}).(*buffer)
	if !ok {
		return nil
	}
	buf.mu.Lock()
	records := buf.records
	buf.records = nil
	buf.mu.Unlock()
	for _, rec := range records {
		if err := b.sink.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops buffered records after a failed command.
func (b *Buffered) Discard(ctx context.Context) {
	if buf, ok := ctx.Value(bufferKey{}).(*buffer); ok {
		buf.mu.Lock()
		buf.records = nil
		buf.mu.Unlock()
	}
}
