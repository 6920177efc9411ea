package tek

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFromAverages(t *testing.T) {
	tests := []struct {
		n    int
		want AcqMode
		str  string
	}{
		{0, AcqMode{Kind: Sample}, "SAMPLE"},
		{1, AcqMode{Kind: HiRes}, "HIRES"},
		{-1, AcqMode{Kind: PeakDetect}, "PEAKDETECT"},
		{8, AcqMode{Kind: Average, Count: 8}, "AVERAGE(8)"},
		{-5, AcqMode{Kind: Envelope, Count: 5}, "ENVELOPE(5)"},
		{InfiniteEnvelopes, AcqMode{Kind: Envelope}, "ENVELOPE(INFINITE)"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			m := ModeFromAverages(tt.n)
			assert.Equal(t, tt.want, m)
			assert.Equal(t, tt.n, m.Averages())
			assert.Equal(t, tt.str, m.String())
		})
	}
}

func TestAveragesRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		tds3000 bool
		set     int
		want    int
	}{
		{"average", true, 8, 8},
		{"sample", true, 0, 0},
		{"hires", false, 1, 1},
		{"peak detect", false, -1, -1},
		{"finite envelopes", true, -5, -5},
		{"envelopes on 4000 series", false, -5, InfiniteEnvelopes},
		{"infinite envelopes", true, InfiniteEnvelopes, InfiniteEnvelopes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newSimScope(tt.tds3000)
			require.NoError(t, sc.SetAverages(tt.set))
			got, err := sc.Averages()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetAcqModeCommands(t *testing.T) {
	sc, l := newSimScope(true)

	require.NoError(t, sc.SetAcqMode(AcqMode{Kind: Average, Count: 64}))
	assert.Equal(t, []string{"ACQUIRE:NUMAVG 64", "ACQUIRE:MODE AVERAGE"}, l.sent)

	l.reset()
	require.NoError(t, sc.SetAcqMode(AcqMode{Kind: Envelope, Count: 10}))
	assert.Equal(t, []string{"ACQUIRE:NUMENV 10", "ACQUIRE:MODE ENVELOPE"}, l.sent)

	l.reset()
	require.NoError(t, sc.SetAcqMode(AcqMode{Kind: Envelope}))
	assert.Equal(t, []string{"ACQUIRE:NUMENV INFINITE", "ACQUIRE:MODE ENVELOPE"}, l.sent)

	l.reset()
	assert.Error(t, sc.SetAcqMode(AcqMode{Kind: Average, Count: 1}))
	assert.Empty(t, l.sent)
}

func TestAcqModePrefixMatch(t *testing.T) {
	sc, l := newSimScope(false)

	l.mode = "PEAKdetect"
	m, err := sc.AcqMode()
	require.NoError(t, err)
	assert.Equal(t, PeakDetect, m.Kind)

	l.mode = "ENV"
	l.numenv = "INFI"
	m, err = sc.AcqMode()
	require.NoError(t, err)
	assert.Equal(t, AcqMode{Kind: Envelope}, m)

	l.mode = "FOOBAR"
	_, err = sc.AcqMode()
	assert.ErrorIs(t, err, ErrUnknownAcqMode)
}
