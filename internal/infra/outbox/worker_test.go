package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeQueue struct {
	docs   []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (q *fakeQueue) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(q.docs) == 0 {
		return nil, nil
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(ctx context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	out []published
	err error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

type countingMetrics struct{ ok, failed int }

func (m *countingMetrics) OutboxPublished(ok bool) {
	if ok {
		m.ok++
		return
	}
	m.failed++
}

func doc(id, name string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"booking_id":"b1"}`),
		OccurredAt: now,
		Aggregate:  "b1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{doc("e1", "booking.requested"), doc("e2", "availability.block_created")}}
	p := &fakeProducer{}
	m := &countingMetrics{}
	w := &Worker{Store: q, Producer: p, TopicPrefix: "dev.", ID: "w1", Metrics: m}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"e1", "e2"}, q.sent)
	assert.Equal(t, 2, m.ok)

	require.Len(t, p.out, 2)
	assert.Equal(t, "dev.booking.events.v1", p.out[0].topic)
	assert.Equal(t, "dev.availability.events.v1", p.out[1].topic)
	assert.Equal(t, "b1", p.out[0].key)
	assert.Equal(t, "application/cloudevents+json", p.out[0].headers["content-type"])
	assert.Equal(t, "00-abc-def-01", p.out[0].headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(p.out[0].payload, &evt))
	assert.Equal(t, "e1", evt["id"])
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "app://rentnow", evt["source"])
	assert.Equal(t, map[string]any{"booking_id": "b1"}, evt["data"])
}

func TestDrainSchedulesRetryWithBackoff(t *testing.T) {
	first := doc("e1", "booking.confirmed")
	third := doc("e3", "booking.confirmed")
	third.Attempts = 5
	q := &fakeQueue{docs: []*EventDocument{first, third}}
	m := &countingMetrics{}
	w := &Worker{
		Store:    q,
		Producer: &fakeProducer{err: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 30 * time.Second},
		Metrics:  m,
		Now:      func() time.Time { return now },
	}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, now.Add(time.Second), q.failed["e1"])
	assert.Len(t, q.docs, 1, "drain stops at the first failure")

	_, err = w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Second), q.failed["e3"])
	assert.Equal(t, 2, m.failed)
	assert.Empty(t, q.sent)
}

func TestDrainRejectsMalformedPayload(t *testing.T) {
	bad := doc("e1", "booking.requested")
	bad.Payload = []byte("not json")
	q := &fakeQueue{docs: []*EventDocument{bad}}
	p := &fakeProducer{}
	w := &Worker{Store: q, Producer: p, Now: func() time.Time { return now }}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Contains(t, q.failed, "e1")
	assert.Empty(t, p.out)
}

func TestRunRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}
