package dto

import "rentnow/internal/domain/pricing"

type PriceBreakdown struct {
	Nights            int    `json:"nights"`
	NightlyPriceMinor int64  `json:"nightly_price_minor"`
	SubtotalMinor     int64  `json:"subtotal_minor"`
	CleaningFeeMinor  int64  `json:"cleaning_fee_minor"`
	DepositMinor      int64  `json:"deposit_minor"`
	TotalAmountMinor  int64  `json:"total_amount_minor"`
	Currency          string `json:"currency"`
}

func MapPriceBreakdown(b pricing.Breakdown) PriceBreakdown {
	return PriceBreakdown{
		Nights:            b.Nights,
		NightlyPriceMinor: b.NightlyPriceMinor,
		SubtotalMinor:     b.SubtotalMinor,
		CleaningFeeMinor:  b.CleaningFeeMinor,
		DepositMinor:      b.DepositMinor,
		TotalAmountMinor:  b.TotalAmountMinor,
		Currency:          b.Currency,
	}
}

type Quote struct {
	PropertyID string         `json:"property_id"`
	CheckIn    string         `json:"check_in"`
	CheckOut   string         `json:"check_out"`
	Available  bool           `json:"available"`
	Pricing    PriceBreakdown `json:"pricing"`
}
