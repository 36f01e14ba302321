package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validInput() CreateBookingInput {
	return CreateBookingInput{
		StudentID: "student-1",
		TutorID:   "tutor-1",
		SlotID:    "slot-1",
		Amount:    decimal.RequireFromString("50.00"),
		Currency:  "USD",
	}
}

func TestCreateBooking_RejectsMissingParties(t *testing.T) {
	svc := NewBookingService(nil, nil, nil, nil, 15*time.Minute)

	cases := map[string]func(*CreateBookingInput){
		"student": func(i *CreateBookingInput) { i.StudentID = "" },
		"tutor":   func(i *CreateBookingInput) { i.TutorID = "" },
		"slot":    func(i *CreateBookingInput) { i.SlotID = "" },
	}
	for name, mutate := range cases {
		input := validInput()
		mutate(&input)
		_, err := svc.CreateBooking(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput, "missing %s", name)
	}
}

func TestCreateBooking_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewBookingService(nil, nil, nil, nil, 15*time.Minute)

	input := validInput()
	input.Amount = decimal.Zero
	_, err := svc.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateBooking_RejectsBadCurrency(t *testing.T) {
	svc := NewBookingService(nil, nil, nil, nil, 15*time.Minute)

	input := validInput()
	input.Currency = "DOLLAR"
	_, err := svc.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
