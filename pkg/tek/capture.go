package tek

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

// Divisions is the number of horizontal divisions on screen
const Divisions = 10

// CaptureWindow is the part of the acquired record that is on screen
type CaptureWindow struct {
	Acquired int64 // HOR:RECORD
	Points   int64
	Start    int64 // DATA:START, 1 based
	Stop     int64 // DATA:STOP, inclusive
}

// ByteCount is the size of the curve data for 16 bit samples
func (w CaptureWindow) ByteCount() int64 {
	return 2 * w.Points
}

// ComputeWindow centres the points displayed for the given timebase scale and
// sample interval on the acquired record. A window wider than the record is
// reported as ErrWindowOutOfRange rather than clamped.
func ComputeWindow(acquired int64, scale, interval float64) (CaptureWindow, error) {
	if interval <= 0 || math.IsInf(interval, 0) || math.IsNaN(interval) || math.IsNaN(scale) {
		return CaptureWindow{}, fmt.Errorf("%w: sample interval %g, scale %g", ErrWindowOutOfRange, interval, scale)
	}
	p := math.Round(Divisions * scale / interval)
	if p < 1 || p > float64(acquired) {
		return CaptureWindow{}, fmt.Errorf("%w: %.0f points on screen, %d acquired", ErrWindowOutOfRange, p, acquired)
	}
	points := int64(p)

	return CaptureWindow{
		Acquired: acquired,
		Points:   points,
		Start:    (acquired-points)/2 + 1,
		Stop:     (acquired + points) / 2,
	}, nil
}

// SampleInterval returns the time between samples. TDS3000 scopes only offer
// WFMPRE:XINCR?, everything else is asked for HOR:MAIN:SAMPLERATE?.
func (s *Scope) SampleInterval() (float64, error) {
	tds, err := s.IsTDS3000()
	if err != nil {
		return 0, err
	}
	if tds {
		return queryFloat(s.link, "WFMPRE:XINCR?", s.Timeout)
	}
	rate, err := queryFloat(s.link, "HOR:MAIN:SAMPLERATE?", s.Timeout)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %g", ErrWindowOutOfRange, rate)
	}
	return 1 / rate, nil
}

// SampleRate returns the sample rate in samples per second
func (s *Scope) SampleRate() (float64, error) {
	i, err := s.SampleInterval()
	if err != nil {
		return 0, err
	}
	return 1 / i, nil
}

// CalculateWindow works out the on-screen part of the record and sets
// DATA:START and DATA:STOP accordingly
func (s *Scope) CalculateWindow() (CaptureWindow, error) {
	acquired, err := queryInt(s.link, "HOR:RECORD?", s.Timeout)
	if err != nil {
		return CaptureWindow{}, err
	}
	scale, err := queryFloat(s.link, "HOR:MAIN:SCALE?", s.Timeout)
	if err != nil {
		return CaptureWindow{}, err
	}
	interval, err := s.SampleInterval()
	if err != nil {
		return CaptureWindow{}, err
	}

	w, err := ComputeWindow(acquired, scale, interval)
	if err != nil {
		return w, err
	}
	log.Debugf("Capture window: acquired=%v, scale=%g, interval=%g, points=%v, start=%v, stop=%v",
		acquired, scale, interval, w.Points, w.Start, w.Stop)

	if err := sendf(s.link, "DATA:START %d", w.Start); err != nil {
		return w, err
	}
	if err := sendf(s.link, "DATA:STOP %d", w.Stop); err != nil {
		return w, err
	}
	return w, nil
}

// NoPoints returns the number of points the scope will send, from DATA:START and DATA:STOP
func (s *Scope) NoPoints() (int64, error) {
	start, err := queryInt(s.link, "DATA:START?", s.Timeout)
	if err != nil {
		return 0, err
	}
	stop, err := queryInt(s.link, "DATA:STOP?", s.Timeout)
	if err != nil {
		return 0, err
	}
	return stop - start + 1, nil
}
