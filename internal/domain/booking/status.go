package booking

import (
	"errors"
	"strings"
)

var (
	ErrInvalidStatusTransition = errors.New("booking: invalid status transition")
	ErrInvalidAction           = errors.New("booking: unknown response action")
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusDeclined       Status = "declined"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
	StatusCompleted      Status = "completed"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{
	StatusPendingPayment, StatusPending, StatusConfirmed,
	StatusDeclined, StatusCancelled, StatusExpired, StatusCompleted,
}

// BlockingStatuses occupy calendar nights.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed}

var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusPending, StatusCancelled, StatusExpired},
	StatusPending:        {StatusConfirmed, StatusDeclined, StatusCancelled, StatusExpired},
	StatusConfirmed:      {StatusCompleted, StatusCancelled},
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(strings.ToLower(raw)))
	for _, known := range Statuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

func CanHostRespond(s Status) bool {
	return s == StatusPending
}

func BlocksAvailability(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}

func IsCancellable(s Status) bool {
	switch s {
	case StatusPendingPayment, StatusPending, StatusConfirmed:
		return true
	}
	return false
}

func IsTerminal(s Status) bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusExpired, StatusCompleted:
		return true
	}
	return false
}

// Transition validates a single lifecycle step.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return ErrInvalidStatusTransition
}

// Action is the canonical host response vocabulary.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

// Decision is the older two-valued vocabulary still sent by some clients.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
)

// MapLegacyDecision translates approve/decline. Anything else passes through untouched
// and is rejected by Respond.
func MapLegacyDecision(d Decision) Action {
	switch d {
	case DecisionApprove:
		return ActionAccept
	case DecisionDecline:
		return ActionDecline
	}
	return Action(d)
}

// ParseAction accepts both vocabularies.
func ParseAction(raw string) (Action, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case string(ActionAccept):
		return ActionAccept, nil
	case string(DecisionApprove):
		return MapLegacyDecision(DecisionApprove), nil
	case string(ActionDecline):
		return ActionDecline, nil
	}
	return "", ErrInvalidAction
}

// Respond computes the status a host response leads to.
func Respond(current Status, action Action) (Status, error) {
	if !CanHostRespond(current) {
		return current, ErrInvalidStatusTransition
	}
	switch action {
	case ActionAccept:
		return StatusConfirmed, nil
	case ActionDecline:
		return StatusDeclined, nil
	}
	return current, ErrInvalidAction
}
