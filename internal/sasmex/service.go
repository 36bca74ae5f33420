// Package sasmex obtains the current SASMEX alert list.
package sasmex

import (
	"bytes"
	"context"
	"errors"

	"github.com/rajasatyajit/SasmexMonitor/internal/builder"
	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/feed"
	"github.com/rajasatyajit/SasmexMonitor/internal/fetch"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// DefaultFeedURL is the public CAP feed of the latest SASMEX alerts
const DefaultFeedURL = "https://rss.sasmex.net/api/v1/alerts/latest/cap/"

// Messages reported in Result.ErrorMessage
const (
	MessageUnreachable = "No se pudo conectar con el servicio de SASMEX"
	MessageCancelled   = "Operación cancelada"
)

// Fetcher downloads a document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// Result is the outcome of one request for alerts. A failure is carried here
// instead of being returned, so callers always have something to render.
type Result struct {
	Success      bool           `json:"success"`
	Alerts       []models.Alert `json:"alerts"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Cancelled    bool           `json:"cancelled,omitempty"`
	Err          error          `json:"-"`
}

// Service fetches, parses and builds SASMEX alerts
type Service struct {
	url     string
	fetcher Fetcher
	builder *builder.Builder
}

// NewService creates a service reading url; an empty url uses DefaultFeedURL
func NewService(url string, fetcher Fetcher, b *builder.Builder) *Service {
	if url == "" {
		url = DefaultFeedURL
	}
	if b == nil {
		b = builder.New()
	}
	return &Service{url: url, fetcher: fetcher, builder: b}
}

// URL returns the feed address
func (s *Service) URL() string { return s.url }

// Alerts returns the current alert list, newest first
func (s *Service) Alerts(ctx context.Context) Result {
	log := logger.WithContext(ctx)

	resp, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		if errors.Is(err, apperrors.ErrCancelled) {
			log.Info("SASMEX fetch cancelled")
			return Result{Alerts: []models.Alert{}, ErrorMessage: MessageCancelled, Cancelled: true, Err: err}
		}
		log.Warn("SASMEX feed unreachable", "error", err)
		return Result{Alerts: []models.Alert{}, ErrorMessage: MessageUnreachable, Err: err}
	}

	return Result{Success: true, Alerts: s.Parse(ctx, resp.Body)}
}

// Parse builds alerts from an already downloaded document
func (s *Service) Parse(ctx context.Context, body []byte) []models.Alert {
	if len(bytes.TrimSpace(body)) == 0 {
		return []models.Alert{}
	}

	entries, err := feed.ParseDocument(body)
	if err != nil {
		logger.WithContext(ctx).Warn("SASMEX document could not be parsed", "error", err, "bytes", len(body))
		return []models.Alert{}
	}

	alerts := s.builder.Build(entries)
	logger.WithContext(ctx).Debug("SASMEX alerts built", "entries", len(entries), "alerts", len(alerts))
	return alerts
}
