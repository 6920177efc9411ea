package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/config"
	"github.com/speters/tekvxi/pkg/link"
	"github.com/speters/tekvxi/pkg/monitor"
	"github.com/speters/tekvxi/pkg/server"
)

var httpServe = flag.String("s", "", "start http server at [bindtohost][:]port (default from config, :8000)")
var connTo = flag.String("c", "", "connection string, use [host], socket://[host]:[port] for TCP, usbtmc://[device] or [serialDevice] for direct serial connection")
var configFile = flag.String("config", "", "YAML config `file`")
var verbose = flag.Bool("v", false, "verbose logging")

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

// To be set via go build -ldflags "-X main.buildVersion=$(git describe --dirty) -X main.buildDate=$(date -u +%FT%TZ)"
var buildVersion = "unspecified"
var buildDate = "unknown"

func main() {
	flag.Parse()

	cfg := config.GetDefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	config.SetupLogger(cfg.Log)

	if *verbose == true {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	if *connTo == "" {
		*connTo = cfg.Instrument.Address
	}
	if *connTo == "" {
		log.Fatal("Need connection string in -c option or instrument.address in the config")
	}
	if *httpServe == "" {
		*httpServe = cfg.Server.Listen
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	conn := link.NewDevice()
	conn.Port = cfg.Instrument.Port
	if err := conn.Connect(*connTo); err != nil {
		log.Fatalf("Could not connect to %s: %v", *connTo, err)
	}

	monitor.Register()

	s := server.New(conn)
	s.Version = buildVersion
	s.BuildDate = buildDate
	if idn, err := s.Identify(); err != nil {
		log.Warnf("No answer to *IDN?: %v", err)
	} else {
		log.Infof("Connected to %s", idn)
	}

	// accept :[portnum] as well as [portnum]
	if i, err := strconv.Atoi(*httpServe); err == nil {
		*httpServe = fmt.Sprintf(":%d", i)
	}

	h := &http.Server{Addr: *httpServe, Handler: s.Router()}
	go func() {
		log.Infof("Listening on %s", *httpServe)
		if err := h.ListenAndServe(); err != http.ErrServerClosed {
			log.Error(err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.Error(err)
	}
	conn.Close()

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
		f.Close()
	}
}
