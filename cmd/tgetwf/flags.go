package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"
)

type options struct {
	ip          string
	stem        string
	channel     string
	timeout     time.Duration
	points      int64
	averages    int
	gotAverages bool
	segAverages int
	segments    int
	repeat      int
	clearSweeps bool
	verbose     bool
	configFile  string
}

var errMissingArgs = errors.New("-ip, -f and -c are required")

// modeFlag sets the signed averages encoding: a fixed value for the boolean
// mode switches, a parsed one (optionally negated) otherwise.
type modeFlag struct {
	o      *options
	fixed  *int
	negate bool
}

func (m modeFlag) IsBoolFlag() bool { return m.fixed != nil }

func (m modeFlag) String() string { return "" }

func (m modeFlag) Set(s string) error {
	m.o.gotAverages = true
	if m.fixed != nil {
		m.o.averages = *m.fixed
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if m.negate {
		m.o.averages = -n
		return nil
	}
	// 0 and 1 both mean sample mode here, hires has its own switch
	if n == 0 || n == 1 {
		n = 0
	}
	m.o.averages = n
	return nil
}

type clearFlag struct {
	o  *options
	on bool
}

func (c clearFlag) IsBoolFlag() bool { return true }
func (c clearFlag) String() string   { return "" }
func (c clearFlag) Set(string) error {
	c.o.clearSweeps = c.on
	return nil
}

func fixed(n int) *int { return &n }

func newFlagSet(o *options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tgetwf", flag.ContinueOnError)
	fs.SetOutput(output)

	for _, n := range []string{"ip", "ip_address", "IP"} {
		fs.StringVar(&o.ip, n, "", "IP address or connection string of the scope (eg 128.243.74.98)")
	}
	for _, n := range []string{"f", "filename", "file"} {
		fs.StringVar(&o.stem, n, "", "filename (without extension)")
	}
	for _, n := range []string{"c", "channel", "scope_channel"} {
		fs.StringVar(&o.channel, n, "", "scope channel (1,2,3,4,M,REF1-REF4,D0-D15)")
	}

	for _, n := range []string{"t", "timeout"} {
		fs.Func(n, "timeout in milliseconds (default 10000)", func(s string) error {
			ms, err := strconv.ParseInt(s, 10, 64)
			o.timeout = time.Duration(ms) * time.Millisecond
			return err
		})
	}
	for _, n := range []string{"n", "no_points", "points"} {
		fs.Int64Var(&o.points, n, 0, "set maximum no of points (record length)")
	}
	for _, n := range []string{"a", "averages", "aver"} {
		fs.Var(modeFlag{o: o}, n, "set no of averages (<=1 means sample mode)")
	}
	for _, n := range []string{"sa", "seg_averages", "seg_aver"} {
		fs.IntVar(&o.segAverages, n, 0, "set no of averages (segmented mode)")
	}
	for _, n := range []string{"seg", "segmented", "fast"} {
		fs.IntVar(&o.segments, n, 0, "set no of segments in segmented (FastFrame) mode")
	}
	for _, n := range []string{"p", "peak_detect", "peak"} {
		fs.Var(modeFlag{o: o, fixed: fixed(-1)}, n, "set to peak detect mode")
	}
	for _, n := range []string{"s", "sample", "sam"} {
		fs.Var(modeFlag{o: o, fixed: fixed(0)}, n, "set to sample mode (no averaging)")
	}
	for _, n := range []string{"h", "hires", "hi_res"} {
		fs.Var(modeFlag{o: o, fixed: fixed(1)}, n, "set to hires mode")
	}
	for _, n := range []string{"e", "envelope", "env"} {
		fs.Var(modeFlag{o: o, fixed: fixed(-2)}, n, "set to envelope mode")
	}
	for _, n := range []string{"no_e", "no_envelopes", "no_envs"} {
		fs.Var(modeFlag{o: o, negate: true}, n, "sets no of envelopes (3000 scopes only)")
	}
	for _, n := range []string{"r", "repeat", "rep"} {
		fs.IntVar(&o.repeat, n, 1, "take 'r' traces (0 means \"until 'q'\")")
	}
	for _, n := range []string{"clsw", "clear_sweeps", "clear"} {
		fs.Var(clearFlag{o: o, on: true}, n, "clear sweeps/'single acquisition' mode (default)")
	}
	for _, n := range []string{"noclsw", "no_clear_sweeps", "noclear"} {
		fs.Var(clearFlag{o: o}, n, "no clear sweeps (if averaging)")
	}
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.StringVar(&o.configFile, "config", "", "YAML config `file`")

	fs.Usage = func() {
		fmt.Fprintf(output, "tgetwf: grabs a waveform from a Tektronix scope\n\n")
		fmt.Fprintf(output, "Usage: tgetwf -ip <address> -f <filename> -c <channel> [options]\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nOUTPUTS:\n")
		fmt.Fprintf(output, "filename.wf  : binary data of waveform\n")
		fmt.Fprintf(output, "filename.wfi : waveform information (text)\n\n")
		fmt.Fprintf(output, "EXAMPLE:\n")
		fmt.Fprintf(output, "tgetwf -ip 128.243.74.98 -f test -c 2 -r 0 -clsw\n")
	}
	return fs
}

func parseArgs(args []string, output io.Writer) (*options, error) {
	o := &options{repeat: 1, clearSweeps: true}
	fs := newFlagSet(o, output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.ip == "" || o.stem == "" || o.channel == "" {
		fs.Usage()
		return nil, errMissingArgs
	}
	return o, nil
}
