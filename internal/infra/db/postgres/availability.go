package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	domainavailability "rentnow/internal/domain/availability"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

type blockingStore struct {
	q querier
}

// ListBlockingRows returns blocking bookings and host blocks that overlap the
// half-open window, ordered by start date.
func (s blockingStore) ListBlockingRows(ctx context.Context, propertyID domainlistings.PropertyID, window daterange.DateRange) (domainavailability.BlockingRows, error) {
	var rows domainavailability.BlockingRows

	query, args, err := psql.Select("id", "check_in", "check_out").
		From("bookings").
		Where(squirrel.Eq{"property_id": string(propertyID), "status": blockingStatuses()}).
		Where(squirrel.Lt{"check_in": window.CheckOut}).
		Where(squirrel.Gt{"check_out": window.CheckIn}).
		OrderBy("check_in", "id").
		ToSql()
	if err != nil {
		return rows, fmt.Errorf("%w: ListBlockingRows bookings: %v", ErrBuildQuery, err)
	}
	bookingRanges, err := s.ranges(ctx, query, args)
	if err != nil {
		return rows, err
	}
	for _, r := range bookingRanges {
		rows.Bookings = append(rows.Bookings, domainavailability.BookingRow{ID: r.id, Range: r.dr})
	}

	query, args, err = psql.Select("id", "start_date", "end_date").
		From("host_blocks").
		Where(squirrel.Eq{"property_id": string(propertyID)}).
		Where(squirrel.Lt{"start_date": window.CheckOut}).
		Where(squirrel.Gt{"end_date": window.CheckIn}).
		OrderBy("start_date", "id").
		ToSql()
	if err != nil {
		return rows, fmt.Errorf("%w: ListBlockingRows blocks: %v", ErrBuildQuery, err)
	}
	blockRanges, err := s.ranges(ctx, query, args)
	if err != nil {
		return rows, err
	}
	for _, r := range blockRanges {
		rows.Blocks = append(rows.Blocks, domainavailability.BlockRow{ID: r.id, Range: r.dr})
	}
	return rows, nil
}

type idRange struct {
	id string
	dr daterange.DateRange
}

func (s blockingStore) ranges(ctx context.Context, query string, args []any) ([]idRange, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockingRows: %v", ErrExecQuery, err)
	}
	defer rows.Close()
	var out []idRange
	for rows.Next() {
		var r idRange
		if err := rows.Scan(&r.id, &r.dr.CheckIn, &r.dr.CheckOut); err != nil {
			return nil, fmt.Errorf("%w: ListBlockingRows: %v", ErrScanRow, err)
		}
		r.dr.CheckIn = daterange.Day(r.dr.CheckIn)
		r.dr.CheckOut = daterange.Day(r.dr.CheckOut)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBlockingRows: %v", ErrScanRow, err)
	}
	return out, nil
}

// ShortletSettings falls back to the defaults when the property has no
// settings row.
func (s blockingStore) ShortletSettings(ctx context.Context, propertyID domainlistings.PropertyID) (domainlistings.ShortletSettings, error) {
	p, err := propertyRepository{q: s.q}.ByID(ctx, propertyID)
	if err != nil {
		return domainlistings.ShortletSettings{}, err
	}
	return p.Shortlet.Normalized(), nil
}
