package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookinghandlers "rentnow/internal/app/handlers/booking"
)

func TestValidateBookingRequest(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	cases := []struct {
		name   string
		cmd    bookinghandlers.RequestBookingCommand
		fields []string
	}{
		{
			name: "valid",
			cmd:  bookinghandlers.RequestBookingCommand{PropertyID: "p1", GuestID: "g1", CheckIn: "2026-03-10", CheckOut: "2026-03-12", Guests: 2},
		},
		{
			name:   "bad dates and guests",
			cmd:    bookinghandlers.RequestBookingCommand{PropertyID: "p1", GuestID: "g1", CheckIn: "10/03/2026", CheckOut: "2026-03-12", Guests: 0},
			fields: []string{"CheckIn", "Guests"},
		},
		{
			name:   "missing property",
			cmd:    bookinghandlers.RequestBookingCommand{GuestID: "g1", CheckIn: "2026-03-10", CheckOut: "2026-03-12", Guests: 1},
			fields: []string{"PropertyID"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(context.Background(), tc.cmd)
			if len(tc.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs Errors
			require.True(t, errors.As(err, &verrs))
			var got []string
			for _, fe := range verrs {
				got = append(got, fe.Field)
			}
			assert.ElementsMatch(t, tc.fields, got)
		})
	}
}

func TestValidateIgnoresNonStructs(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.NoError(t, v.Validate(context.Background(), nil))
	assert.NoError(t, v.Validate(context.Background(), "plain"))
}
