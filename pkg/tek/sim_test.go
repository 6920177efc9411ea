package tek

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	idnTDS3000 = "TEKTRONIX,TDS 3034B,0,CF:91.1CT FV:v4.05 TDS3FFT:v1.00 TDS3TRG:v1.00"
	idnDPO4000 = "TEKTRONIX,DPO4034,C010203,CF:91.1CT FV:v1.21 TDP:0"
)

type block struct {
	header string
	data   []byte
}

// sim is a scripted scope / AFG. It keeps the acquisition state set through
// it and answers everything else from answers.
type sim struct {
	tds3000   bool
	opc       string
	maxFrames int
	curve     []byte

	mode    string
	numavg  int
	numenv  string
	answers map[string]string

	sent   []string
	blocks []block
}

func newSim(tds3000 bool) *sim {
	return &sim{
		tds3000:   tds3000,
		opc:       "1",
		maxFrames: 1000,
		mode:      "SAMPLE",
		numavg:    16,
		numenv:    "INFINITE",
		answers:   map[string]string{},
	}
}

func (s *sim) Send(cmd string) error {
	s.sent = append(s.sent, cmd)

	f := strings.SplitN(cmd, " ", 2)
	if len(f) != 2 {
		return nil
	}
	switch f[0] {
	case "ACQUIRE:MODE":
		s.mode = f[1]
	case "ACQUIRE:NUMAVG":
		s.numavg, _ = strconv.Atoi(f[1])
	case "ACQUIRE:NUMENV":
		// only TDS3000 scopes keep a finite count
		if s.tds3000 {
			s.numenv = f[1]
		}
	case "DATA:START", "DATA:STOP":
		s.answers[f[0]+"?"] = f[1]
	case "HOR:RECORDLENGTH":
		s.answers["HOR:RECORDLENGTH?"] = f[1]
		s.answers["HOR:RECORD?"] = f[1]
	}
	return nil
}

func (s *sim) Query(cmd string, timeout time.Duration) (string, error) {
	s.Send(cmd)
	switch cmd {
	case "*IDN?":
		if s.tds3000 {
			return idnTDS3000, nil
		}
		return idnDPO4000, nil
	case "*OPC?":
		return s.opc, nil
	case "ACQUIRE:MODE?":
		return s.mode, nil
	case "ACQUIRE:NUMAVG?":
		return strconv.Itoa(s.numavg), nil
	case "ACQUIRE:NUMENV?":
		return s.numenv, nil
	case "HOR:FASTFRAME:STATE 1;:HOR:FASTFRAME:MAXFRAMES?":
		return strconv.Itoa(s.maxFrames), nil
	}
	if a, ok := s.answers[cmd]; ok {
		return a, nil
	}
	return "", fmt.Errorf("sim: no answer for %q", cmd)
}

func (s *sim) ReadBlock(buf []byte, timeout time.Duration) (int, error) {
	return copy(buf, s.curve), nil
}

func (s *sim) SendBlock(header string, data []byte) error {
	s.blocks = append(s.blocks, block{header, append([]byte(nil), data...)})
	return nil
}

// last returns the most recent command starting with prefix
func (s *sim) last(prefix string) string {
	for i := len(s.sent) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.sent[i], prefix) {
			return s.sent[i]
		}
	}
	return ""
}

func (s *sim) reset() { s.sent = nil }

func newSimScope(tds3000 bool) (*Scope, *sim) {
	l := newSim(tds3000)
	sc := NewScope(l)
	sc.sleep = func(time.Duration) {}
	return sc, l
}
