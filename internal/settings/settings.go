// Package settings reads and writes the user's monitor preferences file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/usgs"
)

// Settings is the preferences record written by the setup flow
type Settings struct {
	InitialPeriod        int     `mapstructure:"initial_period" json:"initial_period"`
	PollIntervalMinutes  int     `mapstructure:"poll_interval_minutes" json:"poll_interval_minutes"`
	NotificationsEnabled bool    `mapstructure:"notifications_enabled" json:"notifications_enabled"`
	MinMagnitude         float64 `mapstructure:"min_magnitude" json:"min_magnitude"`
	AutoMonitor          bool    `mapstructure:"auto_monitor" json:"auto_monitor"`
	SoundEnabled         bool    `mapstructure:"sound_enabled" json:"sound_enabled"`
	OnlyMayor            bool    `mapstructure:"only_mayor" json:"only_mayor"`
}

// Defaults returns the settings used before setup has run
func Defaults() Settings {
	return Settings{
		InitialPeriod:        1,
		PollIntervalMinutes:  5,
		NotificationsEnabled: true,
		MinMagnitude:         usgs.DefaultMinMagnitude,
		AutoMonitor:          false,
		SoundEnabled:         true,
		OnlyMayor:            false,
	}
}

// Validate checks the settings are usable
func (s Settings) Validate() error {
	var errs apperrors.MultiError
	if s.PollIntervalMinutes < 1 {
		errs.Add(apperrors.ValidationError{Field: "poll_interval_minutes", Message: "must be at least 1"})
	}
	if s.MinMagnitude < 0 || s.MinMagnitude > 10 {
		errs.Add(apperrors.ValidationError{Field: "min_magnitude", Message: "must be between 0 and 10"})
	}
	if s.InitialPeriod < 0 || s.InitialPeriod >= len(periodFeeds) {
		errs.Add(apperrors.ValidationError{Field: "initial_period", Message: fmt.Sprintf("must be between 0 and %d", len(periodFeeds)-1)})
	}
	return errs.ErrorOrNil()
}

// PollInterval is the polling period in whole minutes
func (s Settings) PollInterval() time.Duration {
	if s.PollIntervalMinutes < 1 {
		return time.Minute
	}
	return time.Duration(s.PollIntervalMinutes) * time.Minute
}

var periodFeeds = []string{usgs.Feed25Hour, usgs.Feed25Day, usgs.Feed25Week, usgs.Feed25Month}

// USGSFeed maps the initial period choice onto a summary feed
func (s Settings) USGSFeed() string {
	if s.InitialPeriod < 0 || s.InitialPeriod >= len(periodFeeds) {
		return usgs.DefaultFeed
	}
	return periodFeeds[s.InitialPeriod]
}

// DefaultPath is the per-user settings location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "SasmexMonitor", "config.json")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("SASMEX")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("initial_period", d.InitialPeriod)
	v.SetDefault("poll_interval_minutes", d.PollIntervalMinutes)
	v.SetDefault("notifications_enabled", d.NotificationsEnabled)
	v.SetDefault("min_magnitude", d.MinMagnitude)
	v.SetDefault("auto_monitor", d.AutoMonitor)
	v.SetDefault("sound_enabled", d.SoundEnabled)
	v.SetDefault("only_mayor", d.OnlyMayor)
	return v
}

// Load reads the settings at path. A missing file yields the defaults;
// SASMEX_* environment variables override file values.
func Load(path string) (Settings, error) {
	v := newViper(path)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Defaults(), fmt.Errorf("read settings %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Defaults(), fmt.Errorf("stat settings %s: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Defaults(), fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Save writes s to path, creating the directory if needed
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("initial_period", s.InitialPeriod)
	v.Set("poll_interval_minutes", s.PollIntervalMinutes)
	v.Set("notifications_enabled", s.NotificationsEnabled)
	v.Set("min_magnitude", s.MinMagnitude)
	v.Set("auto_monitor", s.AutoMonitor)
	v.Set("sound_enabled", s.SoundEnabled)
	v.Set("only_mayor", s.OnlyMayor)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
