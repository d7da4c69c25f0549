package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsWholeCents(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"0", true},
		{"12", true},
		{"12.5", true},
		{"12.50", true},
		{"12.500", true},
		{"-3.25", true},
		{"0.001", false},
		{"0.005", false},
		{"99.999", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, isWholeCents(decimal.RequireFromString(tt.value)))
		})
	}
}
