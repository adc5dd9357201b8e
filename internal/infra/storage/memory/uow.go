package memory

import (
	"context"
	"sync"

	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
)

// Factory wires the in-memory repositories into a unit-of-work boundary.
type Factory struct {
	Store *Store
}

// Begin starts a unit. Writable units hold the store's write lock until
// Commit or Rollback; their writes are visible immediately and undone on Rollback.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrStoreMisconfigured
	}
	u := &Unit{store: f.Store, readOnly: opts.ReadOnly}
	if !opts.ReadOnly {
		f.Store.writeMu.Lock()
	}
	return u, nil
}

// Unit is a uow.UnitOfWork backed by a Store.
type Unit struct {
	store    *Store
	readOnly bool

	once sync.Once
	undo []func()
}

func (u *Unit) Properties() domainlistings.PropertyRepository {
	return propertyRepository{store: u.store}
}

func (u *Unit) Availability() domainavailability.BlockingStore {
	return blockingStore{store: u.store}
}

func (u *Unit) Blocks() domainavailability.BlockRepository {
	return blockRepository{unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return bookingRepository{unit: u}
}

func (u *Unit) Payments() domainpayment.Repository {
	return paymentRepository{unit: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	u.finish(false)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.finish(true)
	return nil
}

func (u *Unit) finish(revert bool) {
	u.once.Do(func() {
		if revert {
			u.store.mu.Lock()
			for i := len(u.undo) - 1; i >= 0; i-- {
				u.undo[i]()
			}
			u.store.mu.Unlock()
		}
		u.undo = nil
		if !u.readOnly {
			u.store.writeMu.Unlock()
		}
	})
}

// write runs fn under the store lock and keeps revert for Rollback.
// Callers must hold a writable unit.
func (u *Unit) write(fn func() (revert func(), err error)) error {
	if u.readOnly {
		return ErrReadOnly
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	revert, err := fn()
	if err != nil {
		return err
	}
	if revert != nil {
		u.undo = append(u.undo, revert)
	}
	return nil
}

var _ uow.UoWFactory = Factory{}
