package booking_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentnow/internal/app/outbox"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingMetrics struct {
	mu          sync.Mutex
	created     []string
	transitions []string
	payments    []string
	checks      int
}

func (m *recordingMetrics) AvailabilityChecked(bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
}

func (m *recordingMetrics) BookingCreated(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, outcome)
}

func (m *recordingMetrics) BookingTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *recordingMetrics) PaymentRecorded(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, status)
}

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	sink    *memory.OutboxSink
	box     *outbox.Buffered
	metrics *recordingMetrics
	now     time.Time
	seq     int
}

func newFixture(t *testing.T, payFirst bool) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.PutProperty(domainlistings.Property{
		ID:                "p1",
		Host:              "h1",
		Title:             "Ikoyi two-bed",
		City:              "Lagos",
		MaxGuests:         4,
		NightlyPriceMinor: 25000,
		CleaningFeeMinor:  3000,
		Currency:          "NGN",
		State:             domainlistings.PropertyActive,
		Shortlet: domainlistings.ShortletSettings{
			MinNights:            1,
			CancellationPolicy:   "moderate_5d",
			PaymentBeforeConfirm: payFirst,
		},
	}))
	sink := memory.NewOutboxSink()
	return &fixture{
		store:   store,
		factory: memory.Factory{Store: store},
		sink:    sink,
		box:     outbox.NewBuffered(sink),
		metrics: &recordingMetrics{},
		now:     testNow,
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) nextID() string {
	f.seq++
	return fmt.Sprintf("b%d", f.seq)
}

var windows = domainbooking.Windows{HostResponse: 24 * time.Hour, Payment: 30 * time.Minute}
