package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rajasatyajit/SasmexMonitor/config"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	once  bool
	setup bool

	interval  int
	notify    bool
	minMag    float64
	auto      bool
	period    int
	onlyMayor bool
	sound     bool

	// flags given explicitly on the command line
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("sasmexmonitor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.BoolVar(&o.once, "once", false, "fetch the SASMEX feed once, print the alerts as JSON and exit")
	fs.BoolVar(&o.setup, "setup", false, "write the settings file from the flags below and exit")
	fs.IntVar(&o.interval, "interval", 5, "poll interval in minutes (with -setup)")
	fs.BoolVar(&o.notify, "notify", true, "enable notifications (with -setup)")
	fs.Float64Var(&o.minMag, "min-mag", 4.5, "minimum USGS magnitude to notify (with -setup)")
	fs.BoolVar(&o.auto, "auto", false, "start monitoring on launch (with -setup)")
	fs.IntVar(&o.period, "period", 1, "USGS history window: 0 hour, 1 day, 2 week, 3 month (with -setup)")
	fs.BoolVar(&o.onlyMayor, "only-mayor", false, "notify only Mayor alerts (with -setup)")
	fs.BoolVar(&o.sound, "sound", true, "play a sound with notifications (with -setup)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.once && o.setup {
		return o, fmt.Errorf("-once and -setup are mutually exclusive")
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	switch {
	case opts.setup:
		err = runSetup(cfg.Settings.Path, opts, os.Stdout)
	case opts.once:
		err = runOnce(cfg, os.Stdout)
	default:
		err = runDaemon(cfg)
	}
	if err != nil {
		logger.Fatal("Exiting", "error", err)
	}
}
