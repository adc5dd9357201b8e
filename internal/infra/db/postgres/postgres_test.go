package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
	"rentnow/internal/domain/shared/daterange"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMapBookingWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{name: "exclusion", err: &pq.Error{Code: codeExclusionViolation, Constraint: exclusionConstraint}, unavailable: true},
		{name: "unique", err: &pq.Error{Code: codeUniqueViolation, Constraint: "bookings_pkey"}, unavailable: true},
		{name: "foreign key", err: &pq.Error{Code: "23503"}},
		{name: "driver", err: errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapBookingWriteError("booking Create", tt.err)
			if tt.unavailable {
				assert.ErrorIs(t, err, domainbooking.ErrDatesUnavailable)
				return
			}
			assert.ErrorIs(t, err, ErrExecQuery)
			assert.NotErrorIs(t, err, domainbooking.ErrDatesUnavailable)
		})
	}
	assert.NoError(t, mapBookingWriteError("noop", nil))
}

func TestSchemaExcludesBlockingOverlaps(t *testing.T) {
	var bookings string
	for _, stmt := range schemaStatements() {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS bookings") {
			bookings = stmt
		}
	}
	require.NotEmpty(t, bookings)
	assert.Contains(t, bookings, "CONSTRAINT "+exclusionConstraint+" EXCLUDE USING gist")
	assert.Contains(t, bookings, "daterange(check_in, check_out, '[)') WITH &&")
	assert.Contains(t, bookings, "WHERE (status IN ('pending', 'confirmed'))")
}

func TestSearchQuery(t *testing.T) {
	params := domainlistings.SearchParams{
		City:          " Lagos ",
		Query:         "50%_off",
		MinGuests:     2,
		PriceMaxMinor: 40000,
		Sort:          domainlistings.SortByRating,
		Page:          domainlistings.Descriptor{Limit: 10, Offset: 20},
		OnlyActive:    true,
	}.Normalized()

	query, args, err := searchQuery(params).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "LEFT JOIN shortlet_settings s ON s.property_id = p.id")
	assert.Contains(t, query, "LOWER(p.city) = $2")
	assert.Contains(t, query, "ORDER BY p.rating DESC, p.id ASC LIMIT 10 OFFSET 20")
	assert.Equal(t, []any{"active", "lagos", `%50\%\_off%`, 2, int64(40000)}, args)
}

func TestListDueQuery(t *testing.T) {
	query, args, err := listDueQuery(now, 50, true).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(query, "LIMIT 50 FOR UPDATE SKIP LOCKED"), query)
	assert.Contains(t, query, "(status = $1 AND expires_at <= $2)")
	assert.Contains(t, query, "(status = $5 AND check_out <= $6)")
	assert.Equal(t, daterange.Day(now), args[5])

	query, _, err = listDueQuery(now, 0, false).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "FOR UPDATE")
	assert.NotContains(t, query, "LIMIT")
}

// The tests below need a disposable database:
// POSTGRES_TEST_DSN=postgres://... go test ./internal/infra/db/postgres
func testFactory(t *testing.T) *Factory {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	for _, table := range []string{"payments", "host_blocks", "bookings", "shortlet_settings", "properties"} {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	}
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, PutProperty(ctx, db, domainlistings.Property{
		ID:                "p1",
		Host:              "h1",
		Title:             "Lekki loft",
		City:              "Lagos",
		MaxGuests:         4,
		NightlyPriceMinor: 25000,
		Currency:          "NGN",
		State:             domainlistings.PropertyActive,
		Shortlet:          domainlistings.ShortletSettings{MinNights: 1, PrepDays: 1},
		CreatedAt:         now,
		UpdatedAt:         now,
	}))
	return NewFactory(db)
}

func pgBooking(t *testing.T, id, in, out string, status domainbooking.Status) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	require.NoError(t, err)
	return &domainbooking.Booking{
		ID: domainbooking.BookingID(id), PropertyID: "p1", HostID: "h1", GuestID: "g1",
		Range: dr, Guests: 1, Currency: "NGN", Status: status, CreatedAt: now, UpdatedAt: now,
	}
}

func TestExclusionConstraintAgainstPostgres(t *testing.T) {
	f := testFactory(t)
	ctx := context.Background()

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Create(ctx, pgBooking(t, "b1", "2026-03-10", "2026-03-12", domainbooking.StatusPending)))
	err = unit.Bookings().Create(ctx, pgBooking(t, "b2", "2026-03-11", "2026-03-13", domainbooking.StatusConfirmed))
	assert.ErrorIs(t, err, domainbooking.ErrDatesUnavailable)

	// the savepoint keeps the transaction usable after the violation
	require.NoError(t, unit.Bookings().Create(ctx, pgBooking(t, "b3", "2026-03-12", "2026-03-14", domainbooking.StatusPending)))
	require.NoError(t, unit.Bookings().Create(ctx, pgBooking(t, "b4", "2026-03-10", "2026-03-12", domainbooking.StatusPendingPayment)))
	require.NoError(t, unit.Payments().Upsert(ctx, &domainpayment.Payment{Reference: "ref", BookingID: "b4", Status: domainpayment.StatusSucceeded, UpdatedAt: now}))
	require.NoError(t, unit.Commit(ctx))

	unit, err = f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	b4, err := unit.Bookings().ByID(ctx, "b4")
	require.NoError(t, err)
	b4.Status = domainbooking.StatusPending
	assert.ErrorIs(t, unit.Bookings().Save(ctx, b4), domainbooking.ErrDatesUnavailable)

	rows, err := unit.Availability().ListBlockingRows(ctx, "p1", daterange.DateRange{
		CheckIn:  daterange.AddDays(now, 0),
		CheckOut: daterange.AddDays(now, 30),
	})
	require.NoError(t, err)
	require.Len(t, rows.Bookings, 2)
	assert.Equal(t, "b1", rows.Bookings[0].ID)

	pay, err := unit.Payments().LatestForBooking(ctx, "b4")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusSucceeded, pay.Status)
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	f := testFactory(t)
	ctx := context.Background()
	unit, err := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)

	assert.ErrorIs(t, unit.Bookings().Create(ctx, pgBooking(t, "b1", "2026-03-10", "2026-03-12", domainbooking.StatusPending)), ErrReadOnly)
	p, err := unit.Properties().ByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Shortlet.PrepDays)
	_, err = unit.Properties().ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainlistings.ErrPropertyNotFound)
}
