package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/app/outbox"
	"rentnow/internal/domain/shared/events"
)

type sliceSink struct {
	records []outbox.EventRecord
	err     error
}

func (s *sliceSink) Add(_ context.Context, rec outbox.EventRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

type aggregate struct {
	events.EventRecorder
}

func TestBufferedHoldsRecordsUntilFlush(t *testing.T) {
	sink := &sliceSink{}
	box := outbox.NewBuffered(sink)
	ctx := outbox.WithBuffer(context.Background())
	assert.Equal(t, ctx, outbox.WithBuffer(ctx))

	require.NoError(t, box.Add(ctx, outbox.EventRecord{ID: "1"}))
	require.NoError(t, box.Add(ctx, outbox.EventRecord{ID: "2"}))
	assert.Empty(t, sink.records)

	require.NoError(t, box.Flush(ctx))
	require.Len(t, sink.records, 2)
	assert.Equal(t, "1", sink.records[0].ID)

	// a second flush has nothing left
	require.NoError(t, box.Flush(ctx))
	assert.Len(t, sink.records, 2)
}

func TestBufferedDiscard(t *testing.T) {
	sink := &sliceSink{}
	box := outbox.NewBuffered(sink)
	ctx := outbox.WithBuffer(context.Background())
	require.NoError(t, box.Add(ctx, outbox.EventRecord{ID: "1"}))
	box.Discard(ctx)
	require.NoError(t, box.Flush(ctx))
	assert.Empty(t, sink.records)
}

func TestBufferedWithoutBufferWritesThrough(t *testing.T) {
	sink := &sliceSink{}
	box := outbox.NewBuffered(sink)
	require.NoError(t, box.Add(context.Background(), outbox.EventRecord{ID: "1"}))
	assert.Len(t, sink.records, 1)

	sink.err = errors.New("down")
	assert.Error(t, box.Add(context.Background(), outbox.EventRecord{ID: "2"}))
	assert.Panics(t, func() { outbox.NewBuffered(nil) })
}

func TestDrainEncodesAndClears(t *testing.T) {
	sink := &sliceSink{}
	box := outbox.NewBuffered(sink)
	agg := &aggregate{}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	agg.Record(events.BaseEvent{Name: "booking.requested", Aggregate: "b1", Time: at})

	encoder := outbox.JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}
	require.NoError(t, outbox.Drain(context.Background(), box, encoder, agg))
	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "booking.requested", rec.Name)
	assert.Equal(t, "b1", rec.Aggregate)
	assert.True(t, at.Equal(rec.OccurredAt))
	assert.Empty(t, agg.PendingEvents())
}
