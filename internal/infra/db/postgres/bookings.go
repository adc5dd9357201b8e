package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	domainbooking "rentnow/internal/domain/booking"
	"rentnow/internal/domain/cancellation"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

var bookingColumns = []string{
	"id", "property_id", "host_id", "guest_id", "check_in", "check_out", "guests",
	"nightly_price_minor", "cleaning_fee_minor", "deposit_minor", "currency",
	"status", "cancellation_policy", "cancel_reason", "respond_by", "expires_at",
	"created_at", "updated_at", "version",
}

type bookingRepository struct {
	unit *Unit
}

// ByID takes a row lock in writable units so concurrent transitions of the
// same booking serialize.
func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	q := psql.Select(bookingColumns...).From("bookings").Where(squirrel.Eq{"id": string(id)})
	if !r.unit.readOnly {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: booking ByID: %v", ErrBuildQuery, err)
	}
	b, err := scanBooking(r.unit.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, err
}

func (r bookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	query, args, err := psql.Insert("bookings").
		Columns(bookingColumns...).
		Values(bookingValues(b)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: booking Create: %v", ErrBuildQuery, err)
	}
	return r.unit.savepoint(ctx, "booking_write", func() error {
		_, err := r.unit.tx.ExecContext(ctx, query, args...)
		return mapBookingWriteError("booking Create", err)
	})
}

// Save bumps the version. A transition into a blocking status can trip the
// exclusion constraint, which surfaces as ErrDatesUnavailable.
func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	query, args, err := psql.Update("bookings").
		SetMap(map[string]any{
			"status":        string(b.Status),
			"cancel_reason": b.CancelReason,
			"respond_by":    nullTime(b.RespondBy),
			"expires_at":    nullTime(b.ExpiresAt),
			"updated_at":    b.UpdatedAt.UTC(),
			"version":       squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{"id": string(b.ID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: booking Save: %v", ErrBuildQuery, err)
	}
	var affected int64
	err = r.unit.savepoint(ctx, "booking_write", func() error {
		res, err := r.unit.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return mapBookingWriteError("booking Save", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainbooking.ErrBookingNotFound
	}
	b.Version++
	return nil
}

// ListDue skips rows another sweeper already holds.
func (r bookingRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	query, args, err := listDueQuery(now, limit, !r.unit.readOnly).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: booking ListDue: %v", ErrBuildQuery, err)
	}
	rows, err := r.unit.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: booking ListDue: %v", ErrExecQuery, err)
	}
	defer rows.Close()
	var out []*domainbooking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: booking ListDue: %v", ErrScanRow, err)
	}
	return out, nil
}

func listDueQuery(now time.Time, limit int, lock bool) squirrel.SelectBuilder {
	now = now.UTC()
	q := psql.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"status": string(domainbooking.StatusPendingPayment)},
				squirrel.LtOrEq{"expires_at": now},
			},
			squirrel.And{
				squirrel.Eq{"status": string(domainbooking.StatusPending)},
				squirrel.LtOrEq{"respond_by": now},
			},
			squirrel.And{
				squirrel.Eq{"status": string(domainbooking.StatusConfirmed)},
				squirrel.LtOrEq{"check_out": daterange.Day(now)},
			},
		}).
		OrderBy("created_at", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if lock {
		q = q.Suffix("FOR UPDATE SKIP LOCKED")
	}
	return q
}

func bookingValues(b *domainbooking.Booking) []any {
	return []any{
		string(b.ID), string(b.PropertyID), string(b.HostID), b.GuestID,
		b.Range.CheckIn, b.Range.CheckOut, b.Guests,
		b.NightlyPriceMinor, b.CleaningFeeMinor, b.DepositMinor, b.Currency,
		string(b.Status), string(b.CancellationPolicy), b.CancelReason,
		nullTime(b.RespondBy), nullTime(b.ExpiresAt),
		b.CreatedAt.UTC(), b.UpdatedAt.UTC(), b.Version,
	}
}

func scanBooking(row rowScanner) (*domainbooking.Booking, error) {
	var (
		b                      domainbooking.Booking
		id, propertyID, hostID string
		status, policy         string
		respondBy, expiresAt   sql.NullTime
	)
	err := row.Scan(
		&id, &propertyID, &hostID, &b.GuestID, &b.Range.CheckIn, &b.Range.CheckOut, &b.Guests,
		&b.NightlyPriceMinor, &b.CleaningFeeMinor, &b.DepositMinor, &b.Currency,
		&status, &policy, &b.CancelReason, &respondBy, &expiresAt,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: booking: %v", ErrScanRow, err)
	}
	b.ID = domainbooking.BookingID(id)
	b.PropertyID = domainlistings.PropertyID(propertyID)
	b.HostID = domainlistings.HostID(hostID)
	b.Status = domainbooking.Status(status)
	b.CancellationPolicy = cancellation.Policy(policy)
	b.Range.CheckIn = daterange.Day(b.Range.CheckIn)
	b.Range.CheckOut = daterange.Day(b.Range.CheckOut)
	b.RespondBy = timeOrZero(respondBy)
	b.ExpiresAt = timeOrZero(expiresAt)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}
