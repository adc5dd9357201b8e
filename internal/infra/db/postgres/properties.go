package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	domainlistings "rentnow/internal/domain/listings"
)

var propertyColumns = []string{
	"p.id", "p.host_id", "p.title", "p.city", "p.country", "p.max_guests",
	"p.nightly_price_minor", "p.cleaning_fee_minor", "p.deposit_minor", "p.currency",
	"p.rating", "p.state", "p.created_at", "p.updated_at",
	"s.property_id", "s.prep_days", "s.cancellation_policy", "s.min_nights",
	"s.max_nights", "s.advance_notice_days", "s.payment_before_confirm",
}

func selectProperties() squirrel.SelectBuilder {
	return psql.Select(propertyColumns...).
		From("properties p").
		LeftJoin("shortlet_settings s ON s.property_id = p.id")
}

type propertyRepository struct {
	q querier
}

func (r propertyRepository) ByID(ctx context.Context, id domainlistings.PropertyID) (*domainlistings.Property, error) {
	query, args, err := selectProperties().Where(squirrel.Eq{"p.id": string(id)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: property ByID: %v", ErrBuildQuery, err)
	}
	p, err := scanProperty(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainlistings.ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r propertyRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()

	countSQL, countArgs, err := applySearchFilters(psql.Select("COUNT(*)").From("properties p"), opts).ToSql()
	if err != nil {
		return domainlistings.SearchResult{}, fmt.Errorf("%w: property Search count: %v", ErrBuildQuery, err)
	}
	var total int
	if err := r.q.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return domainlistings.SearchResult{}, fmt.Errorf("%w: property Search count: %v", ErrExecQuery, err)
	}

	query, args, err := searchQuery(opts).ToSql()
	if err != nil {
		return domainlistings.SearchResult{}, fmt.Errorf("%w: property Search: %v", ErrBuildQuery, err)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return domainlistings.SearchResult{}, fmt.Errorf("%w: property Search: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]*domainlistings.Property, 0, opts.Page.Limit)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return domainlistings.SearchResult{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return domainlistings.SearchResult{}, fmt.Errorf("%w: property Search: %v", ErrScanRow, err)
	}
	return domainlistings.SearchResult{Items: items, Total: total}, nil
}

// searchQuery expects normalized params.
func searchQuery(opts domainlistings.SearchParams) squirrel.SelectBuilder {
	q := applySearchFilters(selectProperties(), opts).OrderBy(orderFor(opts.Sort)...)
	if opts.Page.Limit > 0 {
		q = q.Limit(uint64(opts.Page.Limit))
	}
	if opts.Page.Offset > 0 {
		q = q.Offset(uint64(opts.Page.Offset))
	}
	return q
}

func applySearchFilters(q squirrel.SelectBuilder, opts domainlistings.SearchParams) squirrel.SelectBuilder {
	if opts.OnlyActive {
		q = q.Where(squirrel.Eq{"p.state": string(domainlistings.PropertyActive)})
	}
	if opts.Host != "" {
		q = q.Where(squirrel.Eq{"p.host_id": string(opts.Host)})
	}
	if opts.City != "" {
		q = q.Where(squirrel.Eq{"LOWER(p.city)": opts.City})
	}
	if opts.Country != "" {
		q = q.Where(squirrel.Eq{"LOWER(p.country)": opts.Country})
	}
	if opts.Query != "" {
		q = q.Where(squirrel.Like{"LOWER(p.title)": "%" + escapeLike(opts.Query) + "%"})
	}
	if opts.MinGuests > 0 {
		q = q.Where(squirrel.GtOrEq{"p.max_guests": opts.MinGuests})
	}
	if opts.PriceMinMinor > 0 {
		q = q.Where(squirrel.GtOrEq{"p.nightly_price_minor": opts.PriceMinMinor})
	}
	if opts.PriceMaxMinor > 0 {
		q = q.Where(squirrel.LtOrEq{"p.nightly_price_minor": opts.PriceMaxMinor})
	}
	return q
}

func orderFor(sort domainlistings.CatalogSort) []string {
	switch sort {
	case domainlistings.SortByPriceDesc:
		return []string{"p.nightly_price_minor DESC", "p.id ASC"}
	case domainlistings.SortByRating:
		return []string{"p.rating DESC", "p.id ASC"}
	case domainlistings.SortByNewest:
		return []string{"p.created_at DESC", "p.id ASC"}
	default:
		return []string{"p.nightly_price_minor ASC", "p.id ASC"}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*domainlistings.Property, error) {
	var (
		p                domainlistings.Property
		host, state      string
		settingsID       sql.NullString
		prepDays         sql.NullInt64
		policy           sql.NullString
		minNights        sql.NullInt64
		maxNights        sql.NullInt64
		advanceNotice    sql.NullInt64
		payBeforeConfirm sql.NullBool
	)
	err := row.Scan(
		&p.ID, &host, &p.Title, &p.City, &p.Country, &p.MaxGuests,
		&p.NightlyPriceMinor, &p.CleaningFeeMinor, &p.DepositMinor, &p.Currency,
		&p.Rating, &state, &p.CreatedAt, &p.UpdatedAt,
		&settingsID, &prepDays, &policy, &minNights,
		&maxNights, &advanceNotice, &payBeforeConfirm,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: property: %v", ErrScanRow, err)
	}
	p.Host = domainlistings.HostID(host)
	p.State = domainlistings.PropertyState(state)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Shortlet = domainlistings.DefaultShortletSettings()
	if settingsID.Valid {
		p.Shortlet = domainlistings.ShortletSettings{
			PrepDays:             int(prepDays.Int64),
			CancellationPolicy:   policy.String,
			MinNights:            int(minNights.Int64),
			MaxNights:            int(maxNights.Int64),
			AdvanceNoticeDays:    int(advanceNotice.Int64),
			PaymentBeforeConfirm: payBeforeConfirm.Bool,
		}
	}
	return &p, nil
}

// PutProperty upserts a property and its shortlet settings. It is used for
// seeding; the booking engine only reads properties.
func PutProperty(ctx context.Context, db *sql.DB, p domainlistings.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Insert("properties").
		Columns("id", "host_id", "title", "city", "country", "max_guests",
			"nightly_price_minor", "cleaning_fee_minor", "deposit_minor", "currency",
			"rating", "state", "created_at", "updated_at").
		Values(string(p.ID), string(p.Host), p.Title, p.City, p.Country, p.MaxGuests,
			p.NightlyPriceMinor, p.CleaningFeeMinor, p.DepositMinor, p.Currency,
			p.Rating, string(p.State), p.CreatedAt.UTC(), p.UpdatedAt.UTC()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			host_id = EXCLUDED.host_id, title = EXCLUDED.title, city = EXCLUDED.city,
			country = EXCLUDED.country, max_guests = EXCLUDED.max_guests,
			nightly_price_minor = EXCLUDED.nightly_price_minor,
			cleaning_fee_minor = EXCLUDED.cleaning_fee_minor,
			deposit_minor = EXCLUDED.deposit_minor, currency = EXCLUDED.currency,
			rating = EXCLUDED.rating, state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: PutProperty: %v", ErrBuildQuery, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: PutProperty: %v", ErrExecQuery, err)
	}

	s := p.Shortlet
	query, args, err = psql.Insert("shortlet_settings").
		Columns("property_id", "prep_days", "cancellation_policy", "min_nights",
			"max_nights", "advance_notice_days", "payment_before_confirm").
		Values(string(p.ID), s.PrepDays, s.CancellationPolicy, s.MinNights,
			s.MaxNights, s.AdvanceNoticeDays, s.PaymentBeforeConfirm).
		Suffix(`ON CONFLICT (property_id) DO UPDATE SET
			prep_days = EXCLUDED.prep_days, cancellation_policy = EXCLUDED.cancellation_policy,
			min_nights = EXCLUDED.min_nights, max_nights = EXCLUDED.max_nights,
			advance_notice_days = EXCLUDED.advance_notice_days,
			payment_before_confirm = EXCLUDED.payment_before_confirm`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: PutProperty settings: %v", ErrBuildQuery, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: PutProperty settings: %v", ErrExecQuery, err)
	}
	return tx.Commit()
}
