package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChange(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"+12.50%", 12.5},
		{"-3.20%", -3.2},
		{"+4.10k%", 4100},
		{"-1.00k%", -1000},
		{"+0.00%", 0},
		{"-0.99%", -0.99},
		{"+200.00%", 200},
		{"+200.01%", 200.01},
		{"-50.00%", -50},
		{"  +70.00%  ", 70},
		{"+1.5", 1.5},
	}
	for _, tt := range tests {
		got, err := ParseChange(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestParseChange_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "+%", "+12%", "12.50%", "~3.20%", "-"} {
		_, err := ParseChange(raw)
		var perr *ParseError
		if assert.Error(t, err, raw) {
			assert.True(t, errors.As(err, &perr), "expected ParseError for %q", raw)
			assert.Equal(t, raw, perr.Raw)
		}
	}
}

func TestFormatChange_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.3, -0.5, 12.5, -3.2, 70, -50, 200.01, 999.99, 4100, -1000, 12345.67} {
		s := FormatChange(v)
		got, err := ParseChange(s)
		require.NoError(t, err, s)
		// the k form keeps two decimals of thousands
		tol := 0.005
		if v >= 1000 || v <= -1000 {
			tol = 5
		}
		assert.InDelta(t, v, got, tol, "%v -> %s", v, s)
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+12.50%", FormatChange(12.5))
	assert.Equal(t, "-3.20%", FormatChange(-3.2))
	assert.Equal(t, "+4.10k%", FormatChange(4100))
	assert.Equal(t, "-1.00k%", FormatChange(-1000))
}
