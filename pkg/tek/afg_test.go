package tek

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapBytes(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04}
	require.NoError(t, SwapBytes(b))
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, b)

	r := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 2, 64, 1000, MaxArbBytes} {
		b := make([]byte, n)
		r.Read(b)
		orig := make([]byte, n)
		copy(orig, b)
		require.NoError(t, SwapBytes(b))
		require.NoError(t, SwapBytes(b))
		assert.Equal(t, orig, b)
	}

	odd := []byte{1, 2, 3}
	assert.ErrorIs(t, SwapBytes(odd), ErrOddLength)
	assert.Equal(t, []byte{1, 2, 3}, odd)
}

func TestSendArb(t *testing.T) {
	l := newSim(false)
	afg := NewAFG(l)
	samples := []byte{0x00, 0x20, 0xff, 0x3f}

	require.NoError(t, afg.SendArb(samples, 2))
	require.Len(t, l.blocks, 1)
	assert.Equal(t, ":TRACE:DATA EMEMORY,", l.blocks[0].header)
	assert.Equal(t, []byte{0x20, 0x00, 0x3f, 0xff}, l.blocks[0].data)
	assert.Equal(t, []byte{0x00, 0x20, 0xff, 0x3f}, samples)
	assert.Equal(t, []string{"TRACE:COPY USER2,EMEM"}, l.sent)

	l.sent = nil
	require.NoError(t, afg.SendArb(samples, 0))
	assert.Empty(t, l.sent)

	assert.ErrorIs(t, afg.SendArb([]byte{1}, 1), ErrOddLength)
	assert.Len(t, l.blocks, 2)
}

func TestParseAFGCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"E:1:ON", "OUTP1:STAT ON", false},
		{"E:2:OFF", "OUTP2:STAT OFF", false},
		{"O:1:0.5", "SOUR1:VOLT:LEV:IMM:OFFS 0.500000V", false},
		{"V:1:2", "SOUR1:VOLT:LEV:IMM:AMPL 2.000000VPP", false},
		{"A:2:1.5", "SOUR2:VOLT:LEV:IMM:AMPL 1.500000VPP", false},
		{"F:1:1000", "SOUR1:FREQ:FIX 1000.000000Hz", false},
		{"P:1:90", "SOUR1:PHAS:ADJ 90.000000DEG", false},
		{"S:1:sine", "SOUR1:FUNC:SHAP SIN", false},
		{"S:2:SQUARE", "SOUR2:FUNC:SHAP SQU", false},
		{"S:1:TRIANGLE", "SOUR1:FUNC:SHAP TRI", false},
		{"S:1:DC", "SOUR1:FUNC:SHAP DC", false},
		{"S:1:RAMP", "", true},
		{"F:1:fast", "", true},
		{"F:x:1000", "", true},
		{"X:1:1", "", true},
		{"F1000", "", true},
		{"FF:1:1000", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAFGCommand(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAFGExec(t *testing.T) {
	l := newSim(false)
	require.NoError(t, NewAFG(l).Exec("*RST", "OUTP1:STAT ON"))
	assert.Equal(t, []string{"*RST", "OUTP1:STAT ON"}, l.sent)
}
