package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakdown(t *testing.T) {
	testCases := []struct {
		name      string
		amount    int
		available Denominations
		expected  Denominations
		ok        bool
	}{
		{
			name:      "Exact greedy dispense",
			amount:    4700,
			available: Denominations{N1000: 10, N500: 5, N200: 5},
			expected:  Denominations{N1000: 4, N500: 1, N200: 1},
			ok:        true,
		},
		{
			name:      "Amount not representable",
			amount:    4701,
			available: Denominations{N1000: 10, N500: 5, N200: 5},
			ok:        false,
		},
		{
			name:      "Falls through to smaller notes when large ones run out",
			amount:    3000,
			available: Denominations{N1000: 1, N500: 4, N200: 0},
			expected:  Denominations{N1000: 1, N500: 4},
			ok:        true,
		},
		{
			name:      "Greedy cannot backtrack",
			amount:    600,
			available: Denominations{N1000: 0, N500: 1, N200: 3},
			// 3x200 would work but greedy commits the 500 first.
			ok: false,
		},
		{
			name:      "Insufficient notes overall",
			amount:    5000,
			available: Denominations{N1000: 2, N500: 1, N200: 2},
			ok:        false,
		},
		{
			name:      "Smallest note only",
			amount:    200,
			available: Denominations{N200: 1},
			expected:  Denominations{N200: 1},
			ok:        true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dispensed, ok := Breakdown(tc.amount, tc.available)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, dispensed)
				assert.Equal(t, tc.amount, dispensed.Total())
			}
		})
	}
}

func TestDenominationsTotal(t *testing.T) {
	assert.Equal(t, 0, Denominations{}.Total())
	assert.Equal(t, 13500, Denominations{N1000: 10, N500: 5, N200: 5}.Total())
}
