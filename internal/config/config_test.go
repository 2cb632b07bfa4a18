package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseTTL(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseTTLInvalid(t *testing.T) {
	for _, in := range []string{"", "10", "1x", "h1", "-5m", "1.5h"} {
		_, err := ParseTTL(in)
		require.Error(t, err, in)
	}
}

func TestCSV(t *testing.T) {
	require.Nil(t, CSV(""))
	require.Equal(t, []string{"a"}, CSV("a"))
	require.Equal(t, []string{"a", "b"}, CSV("a, b ,"))
}
