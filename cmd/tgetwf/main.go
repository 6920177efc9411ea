package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/config"
	"github.com/speters/tekvxi/pkg/link"
	"github.com/speters/tekvxi/pkg/publish"
	"github.com/speters/tekvxi/pkg/tek"
)

const progname = "tgetwf"

const (
	exitUsage = 1
	exitLink  = 2
	exitFile  = 3
)

// exitError carries the process exit code of a failed run
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error { return &exitError{code: code, err: err} }

// another asks on the terminal whether to take one more trace
func another(in *bufio.Reader, out io.Writer, count int) bool {
	fmt.Fprintf(out, "Trace %d acquired. Press 'Enter' to take another, or\n", count)
	fmt.Fprintf(out, "'q' then 'Enter' to stop here: ")
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return !strings.HasPrefix(line, "q")
}

func describeMode(asked, actual int) string {
	switch {
	case actual > 1:
		return fmt.Sprintf("You asked for %d averages. Actual number used will be %d averages.", asked, actual)
	case actual == 1:
		return "Hires mode explicitly set"
	case actual == 0:
		return "Sample mode (no averaging) explicitly set"
	case actual == -1:
		return "Peak detect mode explicitly set"
	case actual == tek.InfiniteEnvelopes:
		return "Envelope mode explicitly set, infinite envelopes will be used."
	}
	return fmt.Sprintf("Envelope mode explicitly set, %d envelopes will be used.", -actual)
}

func run(o *options, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	timeout := o.timeout
	if timeout == 0 {
		timeout = cfg.Instrument.Timeout
	}
	wfName := o.stem + ".wf"
	wfiName := o.stem + ".wfi"
	src := tek.ParseSource(o.channel)

	f, err := os.Create(wfName)
	if err != nil {
		return fail(exitFile, fmt.Errorf("could not open file for writing: %w", err))
	}
	// anything going wrong with the instrument leaves no partial .wf behind
	abort := func(err error) error {
		f.Close()
		os.Remove(wfName)
		return fail(exitLink, err)
	}

	dev := link.NewDevice()
	dev.Port = cfg.Instrument.Port
	if err := dev.Connect(o.ip); err != nil {
		return abort(err)
	}
	defer dev.Close()

	sc := tek.NewScope(dev)
	sc.Timeout = timeout
	if err := sc.Init(); err != nil {
		return abort(err)
	}

	if o.points > 0 {
		n, err := sc.SetRecordLength(o.points)
		if err != nil {
			return abort(err)
		}
		fmt.Fprintf(stdout, "You asked for %d points. Record length has been set to %d points.\n", o.points, n)
	}

	win, err := sc.SetForCapture(tek.CaptureOptions{ClearSweeps: o.clearSweeps, Timeout: timeout})
	if err != nil {
		return abort(err)
	}

	bufSize := win.ByteCount()
	traces := 0
	if o.segments > 0 {
		traces = o.segments
		fmt.Fprintf(stdout, "You asked for %d segments.\n", o.segments)
		if o.clearSweeps {
			traces, err = sc.SetSegmented(o.segments)
			if err != nil {
				return abort(err)
			}
			fmt.Fprintf(stdout, "Actual number used will be %d segments.\n", traces)
		}
		bufSize *= int64(traces)
	}
	buf := make([]byte, bufSize)

	averages := 0
	if o.gotAverages {
		if err := sc.SetAverages(o.averages); err != nil {
			return abort(err)
		}
		if averages, err = sc.Averages(); err != nil {
			return abort(err)
		}
		fmt.Fprintln(stdout, describeMode(o.averages, averages))
	}
	if o.segAverages > 0 {
		if averages, err = sc.SetSegmentedAverages(o.segAverages); err != nil {
			return abort(err)
		}
		fmt.Fprintf(stdout, "You asked for %d segmented averages. Actual number used will be %d averages.\n", o.segAverages, averages)
	}

	in := bufio.NewReader(stdin)
	count := 0
	for {
		n, err := sc.GetData(buf, tek.DataOptions{Source: src, ClearSweeps: o.clearSweeps, Timeout: timeout})
		if err != nil {
			return abort(fmt.Errorf("problem reading the data: %w", err))
		}
		if n <= 0 {
			return abort(errors.New("problem reading the data: no data"))
		}
		if _, err := f.Write(buf[:n]); err != nil {
			f.Close()
			return fail(exitFile, err)
		}
		count++
		if count == o.repeat || !another(in, stdout, count) {
			break
		}
	}
	if o.segments == 0 {
		traces = count
		if count > 1 {
			fmt.Fprintf(stdout, "A total of %d traces were acquired.\n", count)
		}
	} else {
		// every repeat appended a full set of segments
		traces *= count
	}
	if err := f.Close(); err != nil {
		return fail(exitFile, err)
	}

	wi, err := sc.WaveformInfo(tek.Source{}, progname, traces)
	if err != nil {
		return fail(exitLink, err)
	}
	if err := wi.WriteFile(wfiName); err != nil {
		return fail(exitFile, err)
	}

	if cfg.Redis.Enabled {
		idn, _ := sc.Identify()
		record(cfg.Redis, publish.Record{
			Instrument: idn,
			Source:     src.Token(),
			File:       wfName,
			Points:     wi.Points(),
			Averages:   averages,
			Repeat:     count,
			Time:       time.Now(),
		})
	}

	fmt.Fprintf(stdout, "%d points acquired from source '%s'\n", bufSize/tek.BytesPerPoint, o.channel)
	return nil
}

// record publishes r, a failure only costs a warning
func record(cfg config.RedisConfig, r publish.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := publish.NewPublisher(ctx, cfg)
	if err != nil {
		log.Warn(err)
		return
	}
	defer p.Close()
	if err := p.Publish(ctx, r); err != nil {
		log.Warn(err)
	}
}

func main() {
	o, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errMissingArgs) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitUsage)
	}

	cfg := config.GetDefaultConfig()
	if o.configFile != "" {
		if cfg, err = config.LoadConfig(o.configFile); err != nil {
			log.Fatal(err)
		}
		config.SetupLogger(cfg.Log)
	}
	if o.verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	if err := run(o, cfg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v, quitting...\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitLink)
	}
}
