package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Resolved(t *testing.T) {
	assert.False(t, StatusHold.Resolved())
	assert.True(t, StatusConfirmed.Resolved())
	assert.True(t, StatusCancelled.Resolved())
	assert.True(t, StatusExpired.Resolved())
}
