package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
	"rentnow/internal/domain/shared/daterange"
)

var (
	ErrReadOnly         = errors.New("memory: write in read-only unit")
	ErrDuplicateBooking = errors.New("memory: booking already exists")
)

type propertyRepository struct {
	store *Store
}

func (r propertyRepository) ByID(ctx context.Context, id domainlistings.PropertyID) (*domainlistings.Property, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.properties[id]
	if !ok {
		return nil, domainlistings.ErrPropertyNotFound
	}
	return &p, nil
}

// Search filters and sorts every stored property, then windows the result.
func (r propertyRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	r.store.mu.RLock()
	matches := make([]*domainlistings.Property, 0, len(r.store.properties))
	for _, p := range r.store.properties {
		if err := ctx.Err(); err != nil {
			r.store.mu.RUnlock()
			return domainlistings.SearchResult{}, err
		}
		if opts.Matches(&p) {
			matches = append(matches, &p)
		}
	}
	r.store.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return opts.Sort.Less(matches[i], matches[j])
	})
	page := domainlistings.Paginate(matches, opts.Page)
	return domainlistings.SearchResult{Items: page.Items, Total: page.Total}, nil
}

type blockingStore struct {
	store *Store
}

func (s blockingStore) ListBlockingRows(ctx context.Context, propertyID domainlistings.PropertyID, window daterange.DateRange) (domainavailability.BlockingRows, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	var rows domainavailability.BlockingRows
	for _, b := range s.store.bookings {
		if b.PropertyID != propertyID || !domainbooking.BlocksAvailability(b.Status) || !b.Range.Overlaps(window) {
			continue
		}
		rows.Bookings = append(rows.Bookings, domainavailability.BookingRow{ID: string(b.ID), Range: b.Range})
	}
	for _, blk := range s.store.blocks {
		if blk.PropertyID != propertyID || !blk.Range.Overlaps(window) {
			continue
		}
		rows.Blocks = append(rows.Blocks, domainavailability.BlockRow{ID: string(blk.ID), Range: blk.Range})
	}
	sort.Slice(rows.Bookings, func(i, j int) bool { return rows.Bookings[i].Range.CheckIn.Before(rows.Bookings[j].Range.CheckIn) })
	sort.Slice(rows.Blocks, func(i, j int) bool { return rows.Blocks[i].Range.CheckIn.Before(rows.Blocks[j].Range.CheckIn) })
	return rows, nil
}

func (s blockingStore) ShortletSettings(ctx context.Context, propertyID domainlistings.PropertyID) (domainlistings.ShortletSettings, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	p, ok := s.store.properties[propertyID]
	if !ok {
		return domainlistings.ShortletSettings{}, domainlistings.ErrPropertyNotFound
	}
	return p.Shortlet.Normalized(), nil
}

type bookingRepository struct {
	unit *Unit
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	b, ok := r.unit.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r bookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	return r.unit.write(func() (func(), error) {
		if _, exists := r.unit.store.bookings[b.ID]; exists {
			return nil, ErrDuplicateBooking
		}
		if err := r.checkExclusion(b); err != nil {
			return nil, err
		}
		r.unit.store.bookings[b.ID] = *cloneBooking(*b)
		id := b.ID
		return func() { delete(r.unit.store.bookings, id) }, nil
	})
}

func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	return r.unit.write(func() (func(), error) {
		prev, ok := r.unit.store.bookings[b.ID]
		if !ok {
			return nil, domainbooking.ErrBookingNotFound
		}
		if err := r.checkExclusion(b); err != nil {
			return nil, err
		}
		r.unit.store.bookings[b.ID] = *cloneBooking(*b)
		return func() { r.unit.store.bookings[prev.ID] = prev }, nil
	})
}

// checkExclusion mirrors the relational exclusion constraint: two blocking
// bookings of one property never share a night.
func (r bookingRepository) checkExclusion(b *domainbooking.Booking) error {
	if !domainbooking.BlocksAvailability(b.Status) {
		return nil
	}
	for _, other := range r.unit.store.bookings {
		if other.ID == b.ID || other.PropertyID != b.PropertyID || !domainbooking.BlocksAvailability(other.Status) {
			continue
		}
		if other.Range.Overlaps(b.Range) {
			return domainbooking.ErrDatesUnavailable
		}
	}
	return nil
}

func (r bookingRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	var due []*domainbooking.Booking
	for _, b := range r.unit.store.bookings {
		if b.Overdue(now) {
			due = append(due, cloneBooking(b))
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].CreatedAt.Equal(due[j].CreatedAt) {
			return due[i].CreatedAt.Before(due[j].CreatedAt)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

type blockRepository struct {
	unit *Unit
}

func (r blockRepository) ByID(ctx context.Context, id domainavailability.BlockID) (*domainavailability.HostBlock, error) {
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	b, ok := r.unit.store.blocks[id]
	if !ok {
		return nil, domainavailability.ErrBlockNotFound
	}
	return cloneBlock(b), nil
}

func (r blockRepository) Save(ctx context.Context, block *domainavailability.HostBlock) error {
	return r.unit.write(func() (func(), error) {
		prev, existed := r.unit.store.blocks[block.ID]
		r.unit.store.blocks[block.ID] = *cloneBlock(*block)
		id := block.ID
		return func() {
			if existed {
				r.unit.store.blocks[id] = prev
				return
			}
			delete(r.unit.store.blocks, id)
		}, nil
	})
}

func (r blockRepository) Delete(ctx context.Context, id domainavailability.BlockID) error {
	return r.unit.write(func() (func(), error) {
		prev, ok := r.unit.store.blocks[id]
		if !ok {
			return nil, domainavailability.ErrBlockNotFound
		}
		delete(r.unit.store.blocks, id)
		return func() { r.unit.store.blocks[id] = prev }, nil
	})
}

type paymentRepository struct {
	unit *Unit
}

func (r paymentRepository) LatestForBooking(ctx context.Context, bookingID string) (*domainpayment.Payment, error) {
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	var latest *domainpayment.Payment
	for _, p := range r.unit.store.payments {
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || p.UpdatedAt.After(latest.UpdatedAt) {
			p := p
			latest = &p
		}
	}
	if latest == nil {
		return nil, domainpayment.ErrPaymentNotFound
	}
	return latest, nil
}

func (r paymentRepository) Upsert(ctx context.Context, p *domainpayment.Payment) error {
	return r.unit.write(func() (func(), error) {
		prev, existed := r.unit.store.payments[p.Reference]
		r.unit.store.payments[p.Reference] = *p
		ref := p.Reference
		return func() {
			if existed {
				r.unit.store.payments[ref] = prev
				return
			}
			delete(r.unit.store.payments, ref)
		}, nil
	})
}
