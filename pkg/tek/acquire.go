package tek

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// AcqKind is the acquisition mode of the scope
type AcqKind byte

const (
	Sample AcqKind = iota
	HiRes          // not available on every model
	PeakDetect
	Average
	Envelope
)

var acqKindNames = map[AcqKind]string{
	Sample:     "SAMPLE",
	HiRes:      "HIRES",
	PeakDetect: "PEAKDETECT",
	Average:    "AVERAGE",
	Envelope:   "ENVELOPE",
}

func (k AcqKind) String() string {
	if s, ok := acqKindNames[k]; ok {
		return s
	}
	return "AcqKind(" + strconv.Itoa(int(k)) + ")"
}

// InfiniteEnvelopes is the signed encoding of envelope mode without a finite
// count. DPO4000 scopes only know this one.
const InfiniteEnvelopes = math.MinInt32

// AcqMode is one acquisition state. Count is the number of averages or
// envelopes; an Envelope with Count 0 accumulates forever.
type AcqMode struct {
	Kind  AcqKind
	Count int
}

// ModeFromAverages decodes the signed "number of averages" used by the command
// line tools: 0 sample, 1 hires, -1 peak detect, n>1 n averages, n<-1 |n| envelopes.
func ModeFromAverages(n int) AcqMode {
	switch {
	case n == 0:
		return AcqMode{Kind: Sample}
	case n == 1:
		return AcqMode{Kind: HiRes}
	case n == -1:
		return AcqMode{Kind: PeakDetect}
	case n == InfiniteEnvelopes:
		return AcqMode{Kind: Envelope}
	case n > 1:
		return AcqMode{Kind: Average, Count: n}
	}
	return AcqMode{Kind: Envelope, Count: -n}
}

// Averages is the inverse of ModeFromAverages
func (m AcqMode) Averages() int {
	switch m.Kind {
	case HiRes:
		return 1
	case PeakDetect:
		return -1
	case Average:
		return m.Count
	case Envelope:
		if m.Count == 0 {
			return InfiniteEnvelopes
		}
		return -m.Count
	}
	return 0
}

func (m AcqMode) String() string {
	switch m.Kind {
	case Average:
		return fmt.Sprintf("AVERAGE(%d)", m.Count)
	case Envelope:
		if m.Count == 0 {
			return "ENVELOPE(INFINITE)"
		}
		return fmt.Sprintf("ENVELOPE(%d)", m.Count)
	}
	return m.Kind.String()
}

// SetAcqMode switches the acquisition mode, setting NUMAVG / NUMENV first where needed
func (s *Scope) SetAcqMode(m AcqMode) error {
	log.Debugf("SetAcqMode %v", m)
	switch m.Kind {
	case Sample, HiRes, PeakDetect:
	case Average:
		if m.Count < 2 {
			return fmt.Errorf("average count must be > 1, got %d", m.Count)
		}
		if err := sendf(s.link, "ACQUIRE:NUMAVG %d", m.Count); err != nil {
			return err
		}
	case Envelope:
		var err error
		switch {
		case m.Count == 0:
			err = s.link.Send("ACQUIRE:NUMENV INFINITE")
		case m.Count > 0:
			err = sendf(s.link, "ACQUIRE:NUMENV %d", m.Count)
		default:
			err = fmt.Errorf("envelope count must be >= 0, got %d", m.Count)
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownAcqMode, m.Kind)
	}
	return sendf(s.link, "ACQUIRE:MODE %s", m.Kind)
}

// AcqMode queries the current acquisition mode and, for average and
// envelope mode, the count
func (s *Scope) AcqMode() (AcqMode, error) {
	a, err := s.link.Query("ACQUIRE:MODE?", s.Timeout)
	if err != nil {
		return AcqMode{}, err
	}
	a = strings.ToUpper(strings.TrimSpace(a))
	if len(a) < 3 {
		return AcqMode{}, fmt.Errorf("%w: %q", ErrUnknownAcqMode, a)
	}

	switch a[:3] {
	case "SAM":
		return AcqMode{Kind: Sample}, nil
	case "HIR":
		return AcqMode{Kind: HiRes}, nil
	case "PEA":
		return AcqMode{Kind: PeakDetect}, nil
	case "AVE":
		n, err := queryInt(s.link, "ACQUIRE:NUMAVG?", s.Timeout)
		if err != nil {
			return AcqMode{}, err
		}
		return AcqMode{Kind: Average, Count: int(n)}, nil
	case "ENV":
		e, err := s.link.Query("ACQUIRE:NUMENV?", s.Timeout)
		if err != nil {
			return AcqMode{}, err
		}
		// DPO4000 answers INFI, which is not documented
		e = strings.ToUpper(strings.TrimSpace(e))
		if strings.HasPrefix(e, "INF") {
			return AcqMode{Kind: Envelope}, nil
		}
		n, err := strconv.Atoi(e)
		if err != nil {
			return AcqMode{}, fmt.Errorf("ACQUIRE:NUMENV? returned %q: %w", e, err)
		}
		return AcqMode{Kind: Envelope, Count: n}, nil
	}
	return AcqMode{}, fmt.Errorf("%w: %q", ErrUnknownAcqMode, a)
}

// SetAverages sets the acquisition mode from its signed encoding
func (s *Scope) SetAverages(n int) error {
	return s.SetAcqMode(ModeFromAverages(n))
}

// Averages returns the signed encoding of the current acquisition mode
func (s *Scope) Averages() (int, error) {
	m, err := s.AcqMode()
	return m.Averages(), err
}
