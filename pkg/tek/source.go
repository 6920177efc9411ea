package tek

import (
	"strconv"
	"strings"
)

type sourceKind byte

const (
	noSource sourceKind = iota
	analogSource
	mathSource
	refSource
	digitalSource
	namedSource
)

// Source references a waveform source of the scope. The zero value means
// "whatever DATA:SOURCE is currently set to".
type Source struct {
	kind sourceKind
	n    int
	name string
}

// Channel returns analog channel n (1-4)
func Channel(n int) Source { return Source{kind: analogSource, n: n} }

// Math returns the math waveform
func Math() Source { return Source{kind: mathSource} }

// Ref returns reference waveform n (1-4)
func Ref(n int) Source { return Source{kind: refSource, n: n} }

// Digital returns digital channel n (0-15) of an MSO
func Digital(n int) Source { return Source{kind: digitalSource, n: n} }

// Named returns a source passed verbatim to DATA:SOURCE
func Named(name string) Source { return Source{kind: namedSource, name: name} }

// ChannelSource maps a single character designator: '1'-'4' to CH1-CH4 and
// 'm'/'M' to MATH. Anything else is passed through as a named source.
func ChannelSource(c rune) Source {
	switch {
	case c >= '1' && c <= '4':
		return Channel(int(c - '0'))
	case c == 'm' || c == 'M':
		return Math()
	}
	return Named(string(c))
}

// ParseSource resolves a user supplied designator. Recognised forms are the
// single characters of ChannelSource and (case insensitive) MATH, CHn, REFn and Dn.
// Unrecognised designators pass through unchanged, newer firmware accepts more
// source names than are listed here.
func ParseSource(s string) Source {
	if s == "" {
		return Source{}
	}
	if len(s) == 1 {
		return ChannelSource(rune(s[0]))
	}

	u := strings.ToUpper(s)
	if u == "MATH" {
		return Math()
	}
	for _, p := range []struct {
		prefix   string
		min, max int
		make     func(int) Source
	}{
		{"CH", 1, 4, Channel},
		{"REF", 1, 4, Ref},
		{"D", 0, 15, Digital},
	} {
		if !strings.HasPrefix(u, p.prefix) {
			continue
		}
		n, err := strconv.Atoi(u[len(p.prefix):])
		if err == nil && n >= p.min && n <= p.max {
			return p.make(n)
		}
	}
	return Named(s)
}

// IsZero reports whether no source was given
func (src Source) IsZero() bool { return src.kind == noSource }

// Token returns the SCPI source name
func (src Source) Token() string {
	switch src.kind {
	case analogSource:
		return "CH" + strconv.Itoa(src.n)
	case mathSource:
		return "MATH"
	case refSource:
		return "REF" + strconv.Itoa(src.n)
	case digitalSource:
		return "D" + strconv.Itoa(src.n)
	case namedSource:
		return src.name
	}
	return ""
}

func (src Source) String() string { return src.Token() }
