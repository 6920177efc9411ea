package tek

import (
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/monitor"
)

// Scope is a Tektronix oscilloscope on the other end of a Link
type Scope struct {
	link Link

	// Timeout applies to queries that are answered right away
	Timeout time.Duration

	idn   string
	sleep func(time.Duration)
}

// NewScope wraps an open link
func NewScope(l Link) *Scope {
	return &Scope{link: l, Timeout: DefaultTimeout, sleep: time.Sleep}
}

// Identify returns the *IDN? string, asking the scope only once per Scope
func (s *Scope) Identify() (string, error) {
	if s.idn != "" {
		return s.idn, nil
	}
	idn, err := s.link.Query("*IDN?", s.Timeout)
	if err != nil {
		return "", err
	}
	s.idn = strings.TrimSpace(idn)
	log.Debugf("Identified %q", s.idn)
	return s.idn, nil
}

// IsTDS3000 reports whether the scope is a TDS3000 series. Those lack
// HOR:MAIN:SAMPLERATE? and update XINCR lazily.
func (s *Scope) IsTDS3000() (bool, error) {
	idn, err := s.Identify()
	if err != nil {
		return false, err
	}
	f := strings.Split(idn, ",")
	return len(f) > 1 && strings.HasPrefix(f[1], "TDS 3"), nil
}

// Init switches off response headers and selects 16 bit little endian signed curve data
func (s *Scope) Init() error {
	if err := s.link.Send(":HEADER 0"); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := s.link.Send(":DATA:WIDTH 2"); err != nil {
		return err
	}
	return s.link.Send(":DATA:ENCDG SRIBINARY")
}

// Setup returns the complete setup (SET?) as a command string
func (s *Scope) Setup() (string, error) {
	setup, err := s.link.Query("SET?", s.Timeout)
	if err != nil {
		return "", fmt.Errorf("could not ask for scope setup: %w", err)
	}
	return setup, nil
}

// SendSetup restores a setup previously returned by Setup
func (s *Scope) SendSetup(setup string) error {
	return s.link.Send(strings.TrimRight(setup, "\r\n"))
}

// SaveSetup writes the setup as a .tss file
func (s *Scope) SaveSetup(w io.Writer) error {
	setup, err := s.Setup()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", setup)
	return err
}

// LoadSetup sends a .tss file
func (s *Scope) LoadSetup(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return fmt.Errorf("empty setup")
	}
	return s.SendSetup(string(b))
}

// SetRecordLength sets the horizontal record length and returns the one the scope chose
func (s *Scope) SetRecordLength(n int64) (int64, error) {
	if err := sendf(s.link, "HOR:RECORDLENGTH %d", n); err != nil {
		return 0, err
	}
	return queryInt(s.link, "HOR:RECORDLENGTH?", s.Timeout)
}

// SetForAuto leaves single sequence mode and lets the scope run freely
func (s *Scope) SetForAuto() error {
	return s.link.Send("ACQ:STOPAFTER RUNSTOP;:ACQ:STATE 1")
}

// waitOPC blocks on *OPC? for up to timeout
func (s *Scope) waitOPC(timeout time.Duration) error {
	start := time.Now()
	v, err := queryInt(s.link, "*OPC?", timeout)
	monitor.OpcWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("*OPC?: %w", err)
	}
	if v != 1 {
		return fmt.Errorf("%w: *OPC? returned %d", ErrOperationIncomplete, v)
	}
	return nil
}

// ForceXincrUpdate makes the scope refresh WFMPRE:XINCR, which lags behind
// record length and timebase changes on TDS3000 scopes. The scope is put in
// sample mode, run in RUNSTOP mode until *OPC? and put back in its previous
// acquisition mode. Even after *OPC? XINCR is only reliable when averaging was off.
func (s *Scope) ForceXincrUpdate(timeout time.Duration) error {
	prev, err := s.AcqMode()
	if err != nil {
		return err
	}
	if err := s.SetAcqMode(AcqMode{Kind: Sample}); err != nil {
		return err
	}
	if err := s.link.Send("ACQUIRE:STOPAFTER RUNSTOP;:ACQUIRE:STATE 1"); err != nil {
		return err
	}
	opcErr := s.waitOPC(timeout)
	if err := s.SetAcqMode(prev); err != nil {
		return err
	}
	return opcErr
}

// CaptureOptions controls SetForCapture
type CaptureOptions struct {
	// ClearSweeps acquires a fresh single sequence for every GetData
	ClearSweeps bool
	// RecordLength is set first when > 0
	RecordLength int64
	// Timeout bounds every *OPC? wait
	Timeout time.Duration
}

// SetForCapture prepares the scope so that the number of points transferred
// matches what is on screen, and returns the capture window. When sweeps are
// cleared the scope is put in single sequence mode.
func (s *Scope) SetForCapture(opts CaptureOptions) (CaptureWindow, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RecordLength > 0 {
		if _, err := s.SetRecordLength(opts.RecordLength); err != nil {
			return CaptureWindow{}, err
		}
	}

	tds, err := s.IsTDS3000()
	if err != nil {
		return CaptureWindow{}, err
	}
	if tds {
		if err := s.ForceXincrUpdate(opts.Timeout); err != nil {
			return CaptureWindow{}, err
		}
	} else if !opts.ClearSweeps {
		// Not clearing sweeps: stop, otherwise every transfer returns the same data
		if err := s.link.Send("ACQUIRE:STATE 0"); err != nil {
			return CaptureWindow{}, err
		}
		if err := s.waitOPC(opts.Timeout); err != nil {
			return CaptureWindow{}, err
		}
	}

	w, err := s.CalculateWindow()
	if err != nil {
		return w, err
	}

	if opts.ClearSweeps {
		if err := s.link.Send("ACQUIRE:STOPAFTER SEQUENCE"); err != nil {
			return w, err
		}
	}
	return w, nil
}

// DataOptions controls GetData
type DataOptions struct {
	// Source is sent as DATA:SOURCE unless zero
	Source Source
	// ClearSweeps runs a single sequence and waits for it before the transfer
	ClearSweeps bool
	// Timeout bounds the *OPC? wait and the transfer
	Timeout time.Duration
}

// GetData transfers one curve into buf and returns the number of bytes
// received. With ClearSweeps the acquisition must complete within the
// timeout, otherwise ErrOperationIncomplete is returned and nothing is read.
func (s *Scope) GetData(buf []byte, opts DataOptions) (int, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if !opts.Source.IsZero() {
		if err := sendf(s.link, "DATA:SOURCE %s", opts.Source.Token()); err != nil {
			return 0, fmt.Errorf("could not set data source: %w", err)
		}
	}

	if opts.ClearSweeps {
		// the "Single Seq" button
		if err := s.link.Send("ACQUIRE:STATE 1"); err != nil {
			return 0, err
		}
		if err := s.waitOPC(opts.Timeout); err != nil {
			log.Warnf("Not grabbing any data: %v", err)
			return 0, err
		}
	}

	if err := s.link.Send("CURVE?"); err != nil {
		return 0, err
	}
	n, err := s.link.ReadBlock(buf, opts.Timeout)
	if err != nil {
		return n, err
	}
	monitor.Acquisitions.WithLabelValues(opts.Source.Token()).Inc()
	return n, nil
}
