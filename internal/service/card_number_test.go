package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcards/internal/errors"
)

func TestValidateCardNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		wantErr bool
	}{
		{"sixteen digits", "4000123412341234", false},
		{"too short", "400012341234123", true},
		{"too long", "40001234123412345", true},
		{"letters", "4000abcd12341234", true},
		{"spaces", "4000 1234 1234 1", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCardNumber(tt.number)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidCard)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateCardNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number, err := GenerateCardNumber()
		require.NoError(t, err)
		assert.Len(t, number, 16)
		assert.True(t, strings.HasPrefix(number, "4000"))
		assert.Equal(t, int(number[15]-'0'), luhnCheckDigit(number[:15]), number)
		seen[number] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestLuhnCheckDigit(t *testing.T) {
	assert.Equal(t, 1, luhnCheckDigit("411111111111111"))
	assert.Equal(t, 2, luhnCheckDigit("400000000000000"))
	assert.Equal(t, 0, luhnCheckDigit("400000000000001"))
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**** **** **** 1234", MaskCardNumber("4000000000001234"))
	assert.Equal(t, "****", MaskCardNumber("12"))
}
