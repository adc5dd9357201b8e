package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	domainpayment "rentnow/internal/domain/payment"
)

type paymentRepository struct {
	unit *Unit
}

func (r paymentRepository) LatestForBooking(ctx context.Context, bookingID string) (*domainpayment.Payment, error) {
	query, args, err := psql.Select("reference", "booking_id", "status", "amount_minor", "currency", "updated_at").
		From("payments").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: payment LatestForBooking: %v", ErrBuildQuery, err)
	}
	var (
		p      domainpayment.Payment
		status string
	)
	err = r.unit.tx.QueryRowContext(ctx, query, args...).
		Scan(&p.Reference, &p.BookingID, &status, &p.AmountMinor, &p.Currency, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainpayment.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: payment LatestForBooking: %v", ErrScanRow, err)
	}
	p.Status = domainpayment.Status(status)
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Upsert keys payments by provider reference.
func (r paymentRepository) Upsert(ctx context.Context, p *domainpayment.Payment) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	query, args, err := psql.Insert("payments").
		Columns("reference", "booking_id", "status", "amount_minor", "currency", "updated_at").
		Values(p.Reference, p.BookingID, string(p.Status), p.AmountMinor, p.Currency, p.UpdatedAt.UTC()).
		Suffix(`ON CONFLICT (reference) DO UPDATE SET
			status = EXCLUDED.status, amount_minor = EXCLUDED.amount_minor,
			currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: payment Upsert: %v", ErrBuildQuery, err)
	}
	if _, err := r.unit.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: payment Upsert: %v", ErrExecQuery, err)
	}
	return nil
}
