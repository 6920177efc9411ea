package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/link"
	"github.com/speters/tekvxi/pkg/tek"
)

// rawCommands collects repeated -d options
type rawCommands []string

func (r *rawCommands) String() string { return strings.Join(*r, "; ") }

func (r *rawCommands) Set(s string) error {
	*r = append(*r, s)
	return nil
}

var address = flag.String("ip", tek.DefaultAFGAddress, "address of the AFG, IP or connection string")
var verbose = flag.Bool("v", false, "verbose logging")
var quiet = flag.Bool("q", false, "only log errors")
var raw rawCommands

func init() {
	flag.StringVar(address, "usb", tek.DefaultAFGAddress, "usbtmc device of the AFG, eg usbtmc:///dev/usbtmc0")
	flag.Var(&raw, "d", "send a raw SCPI `command`, may be repeated")
	flag.Usage = printHelp
}

func printHelp() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "tekafg: sets up a Tektronix AFG3000 series generator\n\n")
	fmt.Fprintf(out, "Usage: tekafg [options] [commands]\n\n")
	flag.PrintDefaults()
	fmt.Fprintf(out, `
Commands are <letter>:<channel>:<argument>:
  E:1:ON      enable/disable output (ON|OFF)
  O:1:0.5     offset in V
  V:1:2       amplitude in Vpp (A is a synonym)
  F:1:10000   frequency in Hz
  P:1:90      phase in degrees
  S:1:SINE    shape (DC|SINE|SQUARE|TRIANGLE)

Raw commands given with -d are sent first, then the commands in order.

EXAMPLE:
  tekafg -ip 128.243.74.108 S:1:SINE F:1:1000 V:1:2 E:1:ON
`)
}

func main() {
	if len(os.Args) == 1 {
		printHelp()
		return
	}
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	} else if *quiet {
		log.SetLevel(log.ErrorLevel)
	}

	cmds := append([]string(nil), raw...)
	for _, arg := range flag.Args() {
		log.Debugf("Processing: %s", arg)
		c, err := tek.ParseAFGCommand(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cmds = append(cmds, c)
	}

	dev, err := link.Open(*address)
	if err != nil {
		log.Errorf("Error opening device: %v", err)
		os.Exit(2)
	}
	defer dev.Close()

	if err := tek.NewAFG(dev).Exec(cmds...); err != nil {
		log.Error(err)
		dev.Close()
		os.Exit(2)
	}
}
