package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "10,50", FormatBRL(decimal.RequireFromString("10.5")))
	assert.Equal(t, "1,00", FormatBRL(decimal.NewFromInt(1)))
	assert.Equal(t, "0,00", FormatBRL(decimal.Zero))
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "0h 0min", FormatHours(0))
	assert.Equal(t, "0h 45min", FormatHours(45))
	assert.Equal(t, "79h 36min", FormatHours(79*60+36))
}
