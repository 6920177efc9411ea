package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/link"
	"github.com/speters/tekvxi/pkg/tek"
)

var address string
var filename string
var slot int
var bigEndian bool
var verbose = flag.Bool("v", false, "verbose logging")

func init() {
	for _, n := range []string{"ip", "ip_address", "IP"} {
		flag.StringVar(&address, n, "", "address of the AFG (eg 128.243.74.107)")
	}
	for _, n := range []string{"f", "filename", "file"} {
		flag.StringVar(&filename, n, "", "waveform `file` of 16 bit samples (eg sig.arb)")
	}
	for _, n := range []string{"c", "channel", "ch"} {
		flag.IntVar(&slot, n, 0, "user memory (1-4) to copy the waveform to, otherwise it stays in edit memory")
	}
	for _, n := range []string{"b", "big_endian", "be"} {
		flag.BoolVar(&bigEndian, n, false, "the data is already big endian")
	}
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "tekarb: uploads an arbitrary waveform to a Tektronix AFG3000 series generator\n\n")
		fmt.Fprintf(out, "Usage: tekarb -ip <address> -f <file> [options]\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(out, "\nTektronix AFGs want 14 bit unsigned big endian samples. Data is assumed to\n")
		fmt.Fprintf(out, "be little endian and byte swapped during upload unless -b is given.\n\n")
		fmt.Fprintf(out, "EXAMPLE:\n  tekarb -ip 128.243.74.107 -f sig.arb -c 1\n")
	}
}

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	if address == "" || filename == "" {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(filename)
	if err != nil {
		log.Errorf("Could not open file for reading: %v", err)
		os.Exit(3)
	}
	buf, err := io.ReadAll(io.LimitReader(f, tek.MaxArbBytes))
	f.Close()
	if err != nil {
		log.Errorf("Could not read %s: %v", filename, err)
		os.Exit(3)
	}

	dev, err := link.Open(address)
	if err != nil {
		log.Errorf("Error opening device: %v", err)
		os.Exit(2)
	}
	defer dev.Close()

	// SendArb always swaps, so data that is big endian already is swapped
	// here first and ends up unchanged
	if bigEndian {
		fmt.Println("The endianness of the data will be changed (byte-swapped).")
		if err := tek.SwapBytes(buf); err != nil {
			log.Error(err)
			dev.Close()
			os.Exit(3)
		}
	}

	if err := tek.NewAFG(dev).SendArb(buf, slot); err != nil {
		log.Error(err)
		dev.Close()
		os.Exit(2)
	}
	log.Infof("Uploaded %d points", len(buf)/2)
}
