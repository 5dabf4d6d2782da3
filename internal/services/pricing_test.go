package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinIncrement(t *testing.T) {
	tests := []struct {
		price    int64
		expected int64
	}{
		{0, 100},
		{9_999, 100},
		{10_000, 1_000},
		{19_000, 1_000},
		{49_999, 1_000},
		{50_000, 2_500},
		{99_999, 2_500},
		{100_000, 5_000},
		{499_999, 5_000},
		{500_000, 10_000},
		{7_000_000, 10_000},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, MinIncrement(tc.price), "price %d", tc.price)
	}
}

func TestMinimumAcceptable(t *testing.T) {
	require.Equal(t, int64(9_100), MinimumAcceptable(9_000))
	require.Equal(t, int64(20_000), MinimumAcceptable(19_000))
	require.Equal(t, int64(510_000), MinimumAcceptable(500_000))
}
