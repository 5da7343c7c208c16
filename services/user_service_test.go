package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDaysInYear(t *testing.T) {
	assert.Equal(t, 366, daysInYear(2024))
	assert.Equal(t, 365, daysInYear(2025))
	assert.Equal(t, 365, daysInYear(1900), "century years are not leap unless divisible by 400")
	assert.Equal(t, 366, daysInYear(2000))
}
