package tek

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "CH1"},
		{"4", "CH4"},
		{"m", "MATH"},
		{"M", "MATH"},
		{"math", "MATH"},
		{"ch2", "CH2"},
		{"REF3", "REF3"},
		{"ref1", "REF1"},
		{"D0", "D0"},
		{"d15", "D15"},
		// passed through unchanged
		{"5", "5"},
		{"D16", "D16"},
		{"CH5", "CH5"},
		{"MATH1", "MATH1"},
		{"RF1", "RF1"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			src := ParseSource(tt.in)
			assert.Equal(t, tt.want, src.Token())
			// same input, same token
			assert.Equal(t, src, ParseSource(tt.in))
		})
	}
}

func TestChannelSource(t *testing.T) {
	assert.Equal(t, Channel(3), ChannelSource('3'))
	assert.Equal(t, Math(), ChannelSource('m'))
	assert.Equal(t, Named("x"), ChannelSource('x'))
	assert.True(t, Source{}.IsZero())
	assert.False(t, Math().IsZero())
}
