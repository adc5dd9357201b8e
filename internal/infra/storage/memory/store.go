package memory

import (
	"errors"
	"sync"

	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
	"rentnow/internal/domain/shared/events"
)

var ErrStoreMisconfigured = errors.New("memory: store required")

// Store keeps every aggregate in process memory. Writable units serialize on
// writeMu, which stands in for the row locks and exclusion constraint of the
// relational store.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex

	properties map[domainlistings.PropertyID]domainlistings.Property
	bookings   map[domainbooking.BookingID]domainbooking.Booking
	blocks     map[domainavailability.BlockID]domainavailability.HostBlock
	payments   map[string]domainpayment.Payment
}

func NewStore() *Store {
	return &Store{
		properties: make(map[domainlistings.PropertyID]domainlistings.Property),
		bookings:   make(map[domainbooking.BookingID]domainbooking.Booking),
		blocks:     make(map[domainavailability.BlockID]domainavailability.HostBlock),
		payments:   make(map[string]domainpayment.Payment),
	}
}

// PutProperty seeds or replaces a property. Properties are managed outside the
// booking engine, so there is no unit-of-work path for them.
func (s *Store) PutProperty(p domainlistings.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Shortlet = p.Shortlet.Normalized()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
	return nil
}

func cloneBooking(b domainbooking.Booking) *domainbooking.Booking {
	b.EventRecorder = events.EventRecorder{}
	return &b
}

func cloneBlock(b domainavailability.HostBlock) *domainavailability.HostBlock {
	b.EventRecorder = events.EventRecorder{}
	return &b
}
