package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/link"
	"github.com/speters/tekvxi/pkg/tek"
)

var verbose = flag.Bool("v", false, "verbose logging")

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "teksetup: saves or restores the setup of a Tektronix scope\n\n")
	fmt.Fprintf(out, "Usage: teksetup [-v] save|load <address> <file.tss>\n\n")
	flag.PrintDefaults()
}

func save(sc *tek.Scope, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sc.SaveSetup(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func load(sc *tek.Scope, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return sc.LoadSetup(f)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	args := flag.Args()
	if len(args) != 3 || (args[0] != "save" && args[0] != "load") {
		usage()
		os.Exit(1)
	}
	op, address, path := args[0], args[1], args[2]

	if op == "load" {
		if _, err := os.Stat(path); err != nil {
			log.Error(err)
			os.Exit(3)
		}
	}

	dev, err := link.Open(address)
	if err != nil {
		log.Errorf("Error opening device: %v", err)
		os.Exit(2)
	}
	defer dev.Close()

	sc := tek.NewScope(dev)
	if op == "save" {
		err = save(sc, path)
	} else {
		err = load(sc, path)
	}
	if err != nil {
		log.Error(err)
		dev.Close()
		os.Exit(2)
	}
	log.Infof("Setup %sd (%s)", op, path)
}
