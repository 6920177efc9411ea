package tek

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// BytesPerPoint is fixed by Init (DATA:WIDTH 2)
const BytesPerPoint = 2

// WaveformInfo is the content of a .wfi file: what is needed to turn the raw
// samples of a .wf file into volts and seconds
type WaveformInfo struct {
	Name       string  `json:"name,omitempty"`
	CapturedBy string  `json:"captured_by"`
	Bytes      int64   `json:"bytes"`
	VGain      float64 `json:"vertical_gain"`
	VOffset    float64 `json:"vertical_offset"` // volts at sample value 0, stored negated
	HInterval  float64 `json:"horizontal_interval"`
	HOffset    float64 `json:"horizontal_offset"`
	Traces     int     `json:"traces"`
	// BytesPerPoint and KeepAllPoints are always 2 and 1 for Tektronix scopes
	BytesPerPoint int `json:"bytes_per_point"`
	KeepAllPoints int `json:"keep_all_points"`
}

// Points is the number of samples per trace
func (wi *WaveformInfo) Points() int64 {
	if wi.BytesPerPoint == 0 {
		return wi.Bytes / BytesPerPoint
	}
	return wi.Bytes / int64(wi.BytesPerPoint)
}

// WaveformInfo gathers the scaling of the current capture window. The scope
// must be in the state it was in when the data was taken. src selects
// DATA:SOURCE unless zero.
func (s *Scope) WaveformInfo(src Source, capturedBy string, traces int) (*WaveformInfo, error) {
	if !src.IsZero() {
		if err := sendf(s.link, "DATA:SOURCE %s", src.Token()); err != nil {
			return nil, err
		}
	}
	w, err := s.CalculateWindow()
	if err != nil {
		return nil, err
	}

	var yoff, yzero, ymult, xincr, xzero float64
	for _, q := range []struct {
		cmd string
		v   *float64
	}{
		{"WFMPRE:YOFF?", &yoff},
		{"WFMPRE:YZERO?", &yzero},
		{"WFMPRE:YMULT?", &ymult},
		{"WFMPRE:XINCR?", &xincr},
	} {
		if *q.v, err = queryFloat(s.link, q.cmd, s.Timeout); err != nil {
			return nil, err
		}
	}
	start, err := queryInt(s.link, "DATA:START?", s.Timeout)
	if err != nil {
		return nil, err
	}
	if xzero, err = queryFloat(s.link, "WFMPRE:XZERO?", s.Timeout); err != nil {
		return nil, err
	}

	return &WaveformInfo{
		CapturedBy:    capturedBy,
		Bytes:         w.ByteCount(),
		VGain:         ymult,
		VOffset:       -(yoff * ymult) + yzero,
		HInterval:     xincr,
		HOffset:       xzero + float64(start-1)*xincr,
		Traces:        traces,
		BytesPerPoint: BytesPerPoint,
		KeepAllPoints: 1,
	}, nil
}

// wfi field labels, in file order
const (
	labelBytes     = "Number of bytes"
	labelVGain     = "Vertical gain"
	labelVOffset   = "Vertical offset"
	labelHInterval = "Horizontal interval"
	labelHOffset   = "Horizontal offset"
	labelTraces    = "Number of traces"
	labelBPP       = "Number of bytes per data-point"
	labelKeepAll   = "Keep all datapoints (0 or missing knocks off 1 point, legacy lecroy)"
)

// %g of C printf
func g(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// WriteTo writes the .wfi text
func (wi *WaveformInfo) WriteTo(w io.Writer) (int64, error) {
	bpp := wi.BytesPerPoint
	if bpp == 0 {
		bpp = BytesPerPoint
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "%% %s\n", wi.Name)
	fmt.Fprintf(&b, "%% Waveform captured using %s\n\n", wi.CapturedBy)
	for _, f := range []struct{ label, value string }{
		{labelBytes, strconv.FormatInt(wi.Bytes, 10)},
		{labelVGain, g(wi.VGain)},
		{labelVOffset, g(-wi.VOffset)},
		{labelHInterval, g(wi.HInterval)},
		{labelHOffset, g(wi.HOffset)},
		{labelTraces, strconv.Itoa(wi.Traces)},
		{labelBPP, strconv.Itoa(bpp)},
		{labelKeepAll, strconv.Itoa(wi.KeepAllPoints)},
	} {
		fmt.Fprintf(&b, "%% %s:\n%s\n\n", f.label, f.value)
	}
	return b.WriteTo(w)
}

// WriteFile writes the .wfi file, naming it in the header. Nothing is left
// behind when the write fails.
func (wi *WaveformInfo) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not open %s for writing: %w", path, err)
	}
	named := *wi
	named.Name = path
	if _, err = named.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// ReadWaveformInfo parses a .wfi file
func ReadWaveformInfo(r io.Reader) (*WaveformInfo, error) {
	wi := &WaveformInfo{BytesPerPoint: BytesPerPoint}
	sc := bufio.NewScanner(r)

	header := 0
	label := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "%") {
			text := strings.TrimSpace(strings.TrimPrefix(line, "%"))
			switch {
			case strings.HasSuffix(text, ":"):
				label = strings.TrimSuffix(text, ":")
			case header == 0:
				wi.Name = text
				header++
			case strings.HasPrefix(text, "Waveform captured using "):
				wi.CapturedBy = strings.TrimPrefix(text, "Waveform captured using ")
			}
			continue
		}
		if label == "" {
			return nil, fmt.Errorf("value %q without a label", line)
		}
		if err := wi.set(label, line); err != nil {
			return nil, err
		}
		label = ""
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return wi, nil
}

func (wi *WaveformInfo) set(label, value string) error {
	var err error
	switch label {
	case labelBytes:
		wi.Bytes, err = strconv.ParseInt(value, 10, 64)
	case labelVGain:
		wi.VGain, err = strconv.ParseFloat(value, 64)
	case labelVOffset:
		var v float64
		v, err = strconv.ParseFloat(value, 64)
		wi.VOffset = -v
	case labelHInterval:
		wi.HInterval, err = strconv.ParseFloat(value, 64)
	case labelHOffset:
		wi.HOffset, err = strconv.ParseFloat(value, 64)
	case labelTraces:
		wi.Traces, err = strconv.Atoi(value)
	case labelBPP:
		wi.BytesPerPoint, err = strconv.Atoi(value)
	case labelKeepAll:
		wi.KeepAllPoints, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}
