package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
)

var (
	ErrBuildQuery = fmt.Errorf("%w: postgres: failed to build query", uow.ErrStorage)
	ErrExecQuery  = fmt.Errorf("%w: postgres: failed to execute query", uow.ErrStorage)
	ErrScanRow    = fmt.Errorf("%w: postgres: failed to scan row", uow.ErrStorage)
	ErrTx         = fmt.Errorf("%w: postgres: transaction", uow.ErrStorage)
	ErrReadOnly   = errors.New("postgres: write in read-only unit")
)

const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
)

// mapBookingWriteError turns constraint violations on the bookings table into
// ErrDatesUnavailable. The raw code stays in the message for classification.
func mapBookingWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeExclusionViolation, codeUniqueViolation:
			return fmt.Errorf("%w: %s (%s %s)", domainbooking.ErrDatesUnavailable, op, pqErr.Code, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}
