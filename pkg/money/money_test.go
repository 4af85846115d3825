package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 1000000000000000000},
		{"0.005", 5000000000000000},
		{" 0.02 ", 20000000000000000},
		{"0.000000000000000001", 1},
		{"9.223372036854775807", 9223372036854775807},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001", "9.3"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0", Format(0))
	assert.Equal(t, "0.005", Format(5000000000000000))
	assert.Equal(t, "1", Format(1000000000000000000))
	assert.Equal(t, "0.000000000000000001", Format(1))
	assert.Equal(t, "0.0045", Format(MustParse("0.0045")))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
}
