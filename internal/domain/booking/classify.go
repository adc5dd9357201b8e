package booking

import (
	"errors"
	"net/http"
	"strings"

	"rentnow/internal/domain/shared/daterange"
)

const (
	CodeDatesUnavailable = "dates_unavailable"
	CodeInvalidStay      = "invalid_stay"
	CodeInternal         = "internal"
)

// CreateFailure is what a caller shows when booking creation fails.
// 409 means the client should re-prompt for dates; 500 is a hard error.
type CreateFailure struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

var (
	datesUnavailable = CreateFailure{HTTPStatus: http.StatusConflict, Code: CodeDatesUnavailable, Message: "Those dates are no longer available. Please choose different dates."}
	invalidStay      = CreateFailure{HTTPStatus: http.StatusConflict, Code: CodeInvalidStay, Message: "These dates do not meet the property's stay rules."}
	internalFailure  = CreateFailure{HTTPStatus: http.StatusInternalServerError, Code: CodeInternal, Message: "We could not create your booking. Please try again."}
)

var overlapMarkers = []string{
	"23p01", "23505", "exclusion", "duplicate key", "conflicting key value",
	"overlap", "dates unavailable", "dates_unavailable", "dates blocked",
}

var stayRuleMarkers = []string{
	"nights", "advance notice", "minimum stay", "maximum stay", "in the past",
}

// ClassifyCreateError checks known sentinels first and falls back to the message.
func ClassifyCreateError(err error) CreateFailure {
	switch {
	case err == nil:
		return CreateFailure{}
	case errors.Is(err, ErrDatesUnavailable), errors.Is(err, ErrDatesBlocked):
		return datesUnavailable
	case errors.Is(err, ErrNightsOutOfRange), errors.Is(err, ErrAdvanceNotice), errors.Is(err, ErrCheckInInPast):
		return invalidStay
	case errors.Is(err, daterange.ErrInvalidRange), errors.Is(err, daterange.ErrInvalidDate):
		return invalidStay
	}
	return ClassifyCreateErrorMessage(err.Error())
}

// ClassifyCreateErrorMessage classifies raw storage or validation messages.
func ClassifyCreateErrorMessage(message string) CreateFailure {
	lower := strings.ToLower(message)
	for _, marker := range overlapMarkers {
		if strings.Contains(lower, marker) {
			return datesUnavailable
		}
	}
	for _, marker := range stayRuleMarkers {
		if strings.Contains(lower, marker) {
			return invalidStay
		}
	}
	return internalFailure
}
