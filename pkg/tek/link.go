// Package tek drives Tektronix TDS3000 / DPO4000 / DPO7000 scopes and AFG3000
// arbitrary function generators by sending SCPI commands over an instrument link.
//
// Nothing here is safe for concurrent use: every operation is a sequence of
// round trips on one link and callers must serialise access themselves.
package tek

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Link holds the transport primitives the command layer is built on.
// *link.Device implements it; any other transport (VXI-11, HiSLIP, ...) can be plugged in.
type Link interface {
	// Send writes one command
	Send(cmd string) error
	// Query writes cmd and returns the answer, waiting up to timeout
	Query(cmd string, timeout time.Duration) (string, error)
	// ReadBlock reads one binary block into buf
	ReadBlock(buf []byte, timeout time.Duration) (int, error)
	// SendBlock writes header followed by data as a binary block
	SendBlock(header string, data []byte) error
}

// DefaultTimeout applies to queries that are answered right away
const DefaultTimeout = 10 * time.Second

func sendf(l Link, format string, a ...interface{}) error {
	return l.Send(fmt.Sprintf(format, a...))
}

func queryFloat(l Link, cmd string, timeout time.Duration) (float64, error) {
	s, err := l.Query(cmd, timeout)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s returned %q: %w", cmd, s, err)
	}
	return f, nil
}

// queryInt accepts integer answers as well as NR3 ("1.0E+4") formatted ones
func queryInt(l Link, cmd string, timeout time.Duration) (int64, error) {
	s, err := l.Query(cmd, timeout)
	if err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s returned %q: %w", cmd, s, err)
	}
	return int64(math.Round(f)), nil
}
