package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rajasatyajit/SasmexMonitor/config"
	"github.com/rajasatyajit/SasmexMonitor/internal/builder"
	"github.com/rajasatyajit/SasmexMonitor/internal/fetch"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/sasmex"
	"github.com/rajasatyajit/SasmexMonitor/internal/settings"
)

// applySetupFlags overlays the explicitly given flags onto s
func applySetupFlags(s settings.Settings, o options) settings.Settings {
	if o.set["interval"] {
		s.PollIntervalMinutes = o.interval
	}
	if o.set["notify"] {
		s.NotificationsEnabled = o.notify
	}
	if o.set["min-mag"] {
		s.MinMagnitude = o.minMag
	}
	if o.set["auto"] {
		s.AutoMonitor = o.auto
	}
	if o.set["period"] {
		s.InitialPeriod = o.period
	}
	if o.set["only-mayor"] {
		s.OnlyMayor = o.onlyMayor
	}
	if o.set["sound"] {
		s.SoundEnabled = o.sound
	}
	return s
}

// runSetup updates the settings file and prints the result
func runSetup(path string, o options, out io.Writer) error {
	current, err := settings.Load(path)
	if err != nil {
		logger.Warn("Existing settings unreadable, starting from defaults", "path", path, "error", err)
	}

	next := applySetupFlags(current, o)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := settings.Save(path, next); err != nil {
		return err
	}
	logger.Info("Settings saved", "path", path)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(next)
}

// runOnce fetches the SASMEX feed a single time and prints the alert list
func runOnce(cfg *config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Feeds.Location()
	if err != nil {
		return fmt.Errorf("feed time zone: %w", err)
	}
	svc := sasmex.NewService(cfg.Feeds.SasmexURL, fetch.New(cfg.Feeds.FetchConfig()), builder.New(builder.WithLocation(loc)))
	return printAlerts(ctx, svc, out)
}

func printAlerts(ctx context.Context, svc *sasmex.Service, out io.Writer) error {
	res := svc.Alerts(ctx)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.ErrorMessage, res.Err)
		}
		return errors.New(res.ErrorMessage)
	}
	return nil
}
