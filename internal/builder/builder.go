// Package builder turns parsed feed entries into ordered alert records.
package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/rajasatyajit/SasmexMonitor/internal/classifier"
	"github.com/rajasatyajit/SasmexMonitor/internal/extract"
	"github.com/rajasatyajit/SasmexMonitor/internal/feed"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
	"github.com/rajasatyajit/SasmexMonitor/pkg/utils"
)

// Builder assembles alerts from entries. It holds no mutable state and is
// safe for concurrent use.
type Builder struct {
	loc        *time.Location
	now        func() time.Time
	classifier *classifier.Classifier
}

// Option configures a Builder
type Option func(*Builder)

// WithLocation sets the zone used for timestamps that carry no usable offset
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithClock replaces the wall clock used when an entry has no date at all
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a builder using the local zone and the system clock
func New(opts ...Option) *Builder {
	b := &Builder{
		loc:        time.Local,
		now:        time.Now,
		classifier: classifier.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts entries into alerts ordered newest first
func (b *Builder) Build(entries []feed.Entry) []models.Alert {
	alerts := make([]models.Alert, 0, len(entries))
	for _, e := range entries {
		alerts = append(alerts, b.BuildEntry(e))
	}
	models.SortAlerts(alerts)
	return alerts
}

// BuildEntry converts a single entry. Every entry yields an alert, however
// little of it could be read.
func (b *Builder) BuildEntry(e feed.Entry) models.Alert {
	c, _ := extract.ExtractCAP(e.Content)
	d := extract.Analyze(e.Title, e.Content)

	alert := models.Alert{
		ID:          entryID(e),
		OccurredAt:  b.eventTime(e, c),
		Title:       d.Title,
		Severity:    b.classifier.Severity(e.Content, e.Title),
		Description: d.Description,
		Magnitude:   d.Magnitude,
		Epicenter:   d.Epicenter,
		DepthKM:     d.DepthKM,
		Coordinates: d.Coordinates,
	}

	if strings.TrimSpace(c.Headline) != "" {
		alert.Title = extract.TruncateHeadline(c.Headline)
	}
	if strings.TrimSpace(c.Description) != "" {
		alert.Description = extract.TruncateDescription(c.Description)
	}
	if alert.Epicenter == "" {
		for _, area := range c.AreaDescs {
			if !extract.IsIssuingCity(area) {
				alert.Epicenter = area
				break
			}
		}
	}

	return alert
}

// eventTime resolves when the event happened: CAP effective, CAP sent, a
// date written in the text, the entry's updated field, then the clock
func (b *Builder) eventTime(e feed.Entry, c extract.CAP) time.Time {
	if t, ok := parseCAPTime(b.loc, c.Effective); ok {
		return t
	}
	if t, ok := parseCAPTime(b.loc, c.Sent); ok {
		return t
	}
	if t, ok := parseLiteralTime(b.loc, e.Title+" "+e.Content); ok {
		return t
	}
	if t, ok := parseUpdatedTime(b.loc, e.Updated); ok {
		return t
	}
	return b.now()
}

// entryID returns the feed id, or one derived from the entry's fields and
// position. Derived ids are stable for identical input.
func entryID(e feed.Entry) string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	hash := utils.HashFields(e.Title, e.Updated, e.Content)
	return fmt.Sprintf("alerta-%s-%d", hash[:12], e.Index)
}
