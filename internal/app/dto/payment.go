package dto

import "rentnow/internal/domain/payment"

type ReturnState struct {
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
	PaymentStatus string `json:"payment_status,omitempty"`
	UIState       string `json:"ui_state"`
	ShouldPoll    bool   `json:"should_poll"`
}

func MapReturnState(bookingID string, s payment.ReturnState) ReturnState {
	return ReturnState{
		BookingID:     bookingID,
		BookingStatus: string(s.BookingStatus),
		PaymentStatus: string(s.PaymentStatus),
		UIState:       string(s.UIState),
		ShouldPoll:    s.ShouldPoll,
	}
}

type PaymentRecorded struct {
	Reference     string `json:"reference"`
	BookingID     string `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
	BookingStatus string `json:"booking_status"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}
