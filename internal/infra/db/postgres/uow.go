package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
)

// Factory opens a transaction per unit of work.
type Factory struct {
	DB *sql.DB
}

func NewFactory(db *sql.DB) *Factory {
	return &Factory{DB: db}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	tx, err := f.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrTx, err)
	}
	return &Unit{tx: tx, readOnly: opts.ReadOnly}, nil
}

// Unit wraps one *sql.Tx. Writable units lock the booking rows they load.
type Unit struct {
	tx       *sql.Tx
	readOnly bool
	done     bool
}

func (u *Unit) Properties() domainlistings.PropertyRepository { return propertyRepository{q: u.tx} }

func (u *Unit) Availability() domainavailability.BlockingStore { return blockingStore{q: u.tx} }

func (u *Unit) Blocks() domainavailability.BlockRepository { return blockRepository{unit: u} }

func (u *Unit) Bookings() domainbooking.Repository { return bookingRepository{unit: u} }

func (u *Unit) Payments() domainpayment.Repository { return paymentRepository{unit: u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTx, err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: rollback: %v", ErrTx, err)
	}
	return nil
}

func (u *Unit) writable() error {
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

// savepoint runs fn so that a failed statement does not poison the whole
// transaction. Callers keep the unit usable after a constraint violation.
func (u *Unit) savepoint(ctx context.Context, name string, fn func() error) error {
	if _, err := u.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%w: savepoint: %v", ErrExecQuery, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := u.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if _, err := u.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%w: release savepoint: %v", ErrExecQuery, err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ uow.UoWFactory = (*Factory)(nil)
	_ uow.UnitOfWork = (*Unit)(nil)
	_ querier        = (*sql.Tx)(nil)
)
