package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		expected string
	}{
		{name: "zero", cents: 0, currency: "€", expected: "€0.00"},
		{name: "whole amount", cents: 15000, currency: "€", expected: "€150.00"},
		{name: "cents", cents: 1234, currency: "$", expected: "$12.34"},
		{name: "single cent", cents: 1, currency: "€", expected: "€0.01"},
		{name: "negative", cents: -250, currency: "€", expected: "-€2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatMoney(tt.cents, tt.currency))
		})
	}
}

func TestFormatOdds(t *testing.T) {
	assert.Equal(t, "3.00x", FormatOdds(3.0))
	assert.Equal(t, "2.00x", FormatOdds(2.0))
	assert.Equal(t, "1.33x", FormatOdds(4.0/3.0))
	assert.Equal(t, "1.67x", FormatOdds(5.0/3.0))
}

func TestFormatShortNotation(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		expected string
	}{
		{name: "zero", cents: 0, expected: "0"},
		{name: "below one unit", cents: 99, expected: "0"},
		{name: "small positive", cents: 99900, expected: "999"},
		{name: "exactly 1k", cents: 100000, expected: "1.0k"},
		{name: "9.9k", cents: 990000, expected: "9.9k"},
		{name: "50k", cents: 5000000, expected: "50k"},
		{name: "1.25M", cents: 125000000, expected: "1.25M"},
		{name: "negative", cents: -150000, expected: "-1.5k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatShortNotation(tt.cents))
		})
	}
}

func TestCentsToDecimal(t *testing.T) {
	assert.Equal(t, "12.5", CentsToDecimal(1250).String())
	assert.True(t, CentsToDecimal(300).Equal(decimal.NewFromInt(3)))
}
