package uow

import (
	"context"

	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() domainlistings.PropertyRepository
	Availability() domainavailability.BlockingStore
	Blocks() domainavailability.BlockRepository
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
