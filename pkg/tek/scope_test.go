package tek

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTDS3000(t *testing.T) {
	sc, l := newSimScope(true)
	tds, err := sc.IsTDS3000()
	require.NoError(t, err)
	assert.True(t, tds)

	// cached
	_, err = sc.Identify()
	require.NoError(t, err)
	assert.Equal(t, []string{"*IDN?"}, l.sent)

	sc, _ = newSimScope(false)
	tds, err = sc.IsTDS3000()
	require.NoError(t, err)
	assert.False(t, tds)
}

func TestInit(t *testing.T) {
	sc, l := newSimScope(false)
	require.NoError(t, sc.Init())
	assert.Equal(t, []string{":HEADER 0", ":DATA:WIDTH 2", ":DATA:ENCDG SRIBINARY"}, l.sent)
}

func TestForceXincrUpdate(t *testing.T) {
	sc, l := newSimScope(true)
	require.NoError(t, sc.SetAverages(64))
	l.reset()

	require.NoError(t, sc.ForceXincrUpdate(DefaultTimeout))
	assert.Equal(t, []string{
		"ACQUIRE:MODE?",
		"ACQUIRE:NUMAVG?",
		"ACQUIRE:MODE SAMPLE",
		"ACQUIRE:STOPAFTER RUNSTOP;:ACQUIRE:STATE 1",
		"*OPC?",
		"ACQUIRE:NUMAVG 64",
		"ACQUIRE:MODE AVERAGE",
	}, l.sent)
}

func TestForceXincrUpdateRestoresOnTimeout(t *testing.T) {
	sc, l := newSimScope(true)
	require.NoError(t, sc.SetAverages(-10))
	l.opc = "0"

	err := sc.ForceXincrUpdate(DefaultTimeout)
	assert.ErrorIs(t, err, ErrOperationIncomplete)

	n, err := sc.Averages()
	require.NoError(t, err)
	assert.Equal(t, -10, n)
}

func TestGetDataIncomplete(t *testing.T) {
	sc, l := newSimScope(false)
	l.opc = "0"
	l.curve = []byte{1, 2, 3, 4}

	buf := make([]byte, 4)
	n, err := sc.GetData(buf, DataOptions{Source: Channel(1), ClearSweeps: true})
	assert.ErrorIs(t, err, ErrOperationIncomplete)
	assert.Zero(t, n)
	assert.NotContains(t, l.sent, "CURVE?")
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestGetData(t *testing.T) {
	sc, l := newSimScope(false)
	l.curve = []byte{1, 2, 3, 4}

	buf := make([]byte, 4)
	n, err := sc.GetData(buf, DataOptions{Source: Math()})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, l.curve, buf)
	assert.Equal(t, []string{"DATA:SOURCE MATH", "CURVE?"}, l.sent)
}

func TestSetForCaptureStopsWithoutClearSweeps(t *testing.T) {
	sc, l := newSimScope(false)
	l.answers = map[string]string{
		"HOR:RECORD?":          "10000",
		"HOR:MAIN:SCALE?":      "1.0E-6",
		"HOR:MAIN:SAMPLERATE?": "250.0E+6",
	}
	_, err := sc.SetForCapture(CaptureOptions{})
	require.NoError(t, err)
	assert.Contains(t, l.sent, "ACQUIRE:STATE 0")
	assert.NotContains(t, l.sent, "ACQUIRE:STOPAFTER SEQUENCE")
}

// A TDS3000 with a 10000 point record and 2500 points on screen, captured
// with cleared sweeps and saved as .wf + .wfi.
func TestCaptureToFiles(t *testing.T) {
	sc, l := newSimScope(true)
	for k, v := range map[string]string{
		"HOR:RECORD?":     "10000",
		"HOR:MAIN:SCALE?": "1.0E-6",
		"WFMPRE:XINCR?":   "4.0E-9",
		"WFMPRE:YOFF?":    "-25.0",
		"WFMPRE:YZERO?":   "0.0",
		"WFMPRE:YMULT?":   "1.5625E-5",
		"WFMPRE:XZERO?":   "-2.0E-5",
	} {
		l.answers[k] = v
	}
	require.NoError(t, sc.Init())

	w, err := sc.SetForCapture(CaptureOptions{ClearSweeps: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3751), w.Start)
	assert.Equal(t, int64(6250), w.Stop)
	assert.Contains(t, l.sent, "DATA:START 3751")
	assert.Contains(t, l.sent, "DATA:STOP 6250")
	assert.Equal(t, "ACQUIRE:STOPAFTER SEQUENCE", l.sent[len(l.sent)-1])

	l.curve = make([]byte, w.ByteCount())
	for i := range l.curve {
		l.curve[i] = byte(i)
	}
	buf := make([]byte, w.ByteCount())
	n, err := sc.GetData(buf, DataOptions{Source: Channel(1), ClearSweeps: true})
	require.NoError(t, err)
	require.EqualValues(t, 5000, n)

	dir := t.TempDir()
	wf := filepath.Join(dir, "test.wf")
	require.NoError(t, os.WriteFile(wf, buf[:n], 0o644))

	wi, err := sc.WaveformInfo(Channel(1), "tgetwf", 1)
	require.NoError(t, err)
	require.NoError(t, wi.WriteFile(wf+"i"))

	f, err := os.Open(wf + "i")
	require.NoError(t, err)
	defer f.Close()
	got, err := ReadWaveformInfo(f)
	require.NoError(t, err)

	st, err := os.Stat(wf)
	require.NoError(t, err)
	assert.Equal(t, st.Size(), got.Bytes)
	assert.EqualValues(t, 2500, got.Points())
	assert.Equal(t, wf+"i", got.Name)
	assert.Equal(t, "tgetwf", got.CapturedBy)
	assert.InDelta(t, 1.5625e-5, got.VGain, 1e-12)
	assert.InDelta(t, 25*1.5625e-5, got.VOffset, 1e-9)
	assert.InDelta(t, 4e-9, got.HInterval, 1e-15)
	assert.InDelta(t, -2e-5+3750*4e-9, got.HOffset, 1e-10)
	assert.Equal(t, 1, got.Traces)
}

func TestSetupFiles(t *testing.T) {
	sc, l := newSimScope(false)
	l.answers["SET?"] = ":ACQUIRE:MODE SAMPLE;:HOR:RECORDLENGTH 10000"

	var b bytes.Buffer
	require.NoError(t, sc.SaveSetup(&b))
	assert.Equal(t, ":ACQUIRE:MODE SAMPLE;:HOR:RECORDLENGTH 10000\n", b.String())

	l.reset()
	require.NoError(t, sc.LoadSetup(&b))
	assert.Equal(t, []string{":ACQUIRE:MODE SAMPLE;:HOR:RECORDLENGTH 10000"}, l.sent)

	assert.Error(t, sc.LoadSetup(strings.NewReader("\n")))
}

func TestSetRecordLength(t *testing.T) {
	sc, l := newSimScope(false)
	n, err := sc.SetRecordLength(100000)
	require.NoError(t, err)
	assert.EqualValues(t, 100000, n)
	assert.Equal(t, "HOR:RECORDLENGTH 100000", l.sent[0])
}

func TestSetForAuto(t *testing.T) {
	sc, l := newSimScope(false)
	require.NoError(t, sc.SetForAuto())
	assert.Equal(t, []string{"ACQ:STOPAFTER RUNSTOP;:ACQ:STATE 1"}, l.sent)
}
