package postgres

import (
	"fmt"
	"strings"

	domainbooking "rentnow/internal/domain/booking"
)

const exclusionConstraint = "bookings_no_overlap"

// schemaStatements returns the DDL. The exclusion constraint is the final
// arbiter of double bookings: two bookings in a blocking status never share
// a night of the same property, while back-to-back stays remain legal since
// the ranges are half-open.
func schemaStatements() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`CREATE TABLE IF NOT EXISTS properties (
			id                  TEXT PRIMARY KEY,
			host_id             TEXT NOT NULL,
			title               TEXT NOT NULL DEFAULT '',
			city                TEXT NOT NULL DEFAULT '',
			country             TEXT NOT NULL DEFAULT '',
			max_guests          INT NOT NULL DEFAULT 1,
			nightly_price_minor BIGINT NOT NULL CHECK (nightly_price_minor >= 0),
			cleaning_fee_minor  BIGINT NOT NULL DEFAULT 0,
			deposit_minor       BIGINT NOT NULL DEFAULT 0,
			currency            TEXT NOT NULL DEFAULT '',
			rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
			state               TEXT NOT NULL DEFAULT 'active',
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS shortlet_settings (
			property_id            TEXT PRIMARY KEY REFERENCES properties(id) ON DELETE CASCADE,
			prep_days              INT NOT NULL DEFAULT 0,
			cancellation_policy    TEXT NOT NULL DEFAULT '',
			min_nights             INT NOT NULL DEFAULT 1,
			max_nights             INT NOT NULL DEFAULT 0,
			advance_notice_days    INT NOT NULL DEFAULT 0,
			payment_before_confirm BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bookings (
			id                  TEXT PRIMARY KEY,
			property_id         TEXT NOT NULL REFERENCES properties(id),
			host_id             TEXT NOT NULL,
			guest_id            TEXT NOT NULL,
			check_in            DATE NOT NULL,
			check_out           DATE NOT NULL,
			guests              INT NOT NULL,
			nightly_price_minor BIGINT NOT NULL,
			cleaning_fee_minor  BIGINT NOT NULL,
			deposit_minor       BIGINT NOT NULL,
			currency            TEXT NOT NULL,
			status              TEXT NOT NULL,
			cancellation_policy TEXT NOT NULL,
			cancel_reason       TEXT NOT NULL DEFAULT '',
			respond_by          TIMESTAMPTZ,
			expires_at          TIMESTAMPTZ,
			created_at          TIMESTAMPTZ NOT NULL,
			updated_at          TIMESTAMPTZ NOT NULL,
			version             BIGINT NOT NULL DEFAULT 0,
			CHECK (check_out > check_in),
			CONSTRAINT %s EXCLUDE USING gist (
				property_id WITH =,
				daterange(check_in, check_out, '[)') WITH &&
			) WHERE (status IN (%s))
		)`, exclusionConstraint, blockingStatusList()),
		`CREATE INDEX IF NOT EXISTS bookings_status_idx ON bookings (status, created_at)`,
		`CREATE TABLE IF NOT EXISTS host_blocks (
			id          TEXT PRIMARY KEY,
			property_id TEXT NOT NULL REFERENCES properties(id),
			host_id     TEXT NOT NULL,
			start_date  DATE NOT NULL,
			end_date    DATE NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			CHECK (end_date > start_date)
		)`,
		`CREATE INDEX IF NOT EXISTS host_blocks_property_idx ON host_blocks (property_id, start_date)`,
		`CREATE TABLE IF NOT EXISTS payments (
			reference    TEXT PRIMARY KEY,
			booking_id   TEXT NOT NULL REFERENCES bookings(id),
			status       TEXT NOT NULL,
			amount_minor BIGINT NOT NULL DEFAULT 0,
			currency     TEXT NOT NULL DEFAULT '',
			updated_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS payments_booking_idx ON payments (booking_id, updated_at DESC)`,
	}
}

func blockingStatusList() string {
	quoted := make([]string, 0, len(domainbooking.BlockingStatuses))
	for _, s := range domainbooking.BlockingStatuses {
		quoted = append(quoted, "'"+string(s)+"'")
	}
	return strings.Join(quoted, ", ")
}

func blockingStatuses() []string {
	out := make([]string, 0, len(domainbooking.BlockingStatuses))
	for _, s := range domainbooking.BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}
