package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	domainavailability "rentnow/internal/domain/availability"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

type blockRepository struct {
	unit *Unit
}

func (r blockRepository) ByID(ctx context.Context, id domainavailability.BlockID) (*domainavailability.HostBlock, error) {
	query, args, err := psql.Select("id", "property_id", "host_id", "start_date", "end_date", "note", "created_at").
		From("host_blocks").
		Where(squirrel.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: block ByID: %v", ErrBuildQuery, err)
	}
	var (
		b                   domainavailability.HostBlock
		blockID, prop, host string
	)
	err = r.unit.tx.QueryRowContext(ctx, query, args...).
		Scan(&blockID, &prop, &host, &b.Range.CheckIn, &b.Range.CheckOut, &b.Note, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainavailability.ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: block ByID: %v", ErrScanRow, err)
	}
	b.ID = domainavailability.BlockID(blockID)
	b.PropertyID = domainlistings.PropertyID(prop)
	b.Host = domainlistings.HostID(host)
	b.Range.CheckIn = daterange.Day(b.Range.CheckIn)
	b.Range.CheckOut = daterange.Day(b.Range.CheckOut)
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func (r blockRepository) Save(ctx context.Context, b *domainavailability.HostBlock) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	query, args, err := psql.Insert("host_blocks").
		Columns("id", "property_id", "host_id", "start_date", "end_date", "note", "created_at").
		Values(string(b.ID), string(b.PropertyID), string(b.Host), b.Range.CheckIn, b.Range.CheckOut, b.Note, b.CreatedAt.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, note = EXCLUDED.note").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: block Save: %v", ErrBuildQuery, err)
	}
	if _, err := r.unit.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: block Save: %v", ErrExecQuery, err)
	}
	return nil
}

func (r blockRepository) Delete(ctx context.Context, id domainavailability.BlockID) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	query, args, err := psql.Delete("host_blocks").Where(squirrel.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: block Delete: %v", ErrBuildQuery, err)
	}
	res, err := r.unit.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: block Delete: %v", ErrExecQuery, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domainavailability.ErrBlockNotFound
	}
	return nil
}
