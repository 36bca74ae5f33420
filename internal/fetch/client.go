// Package fetch downloads feed documents with bounded, cancellable retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
)

const (
	DefaultUserAgent = "SasmexMonitor/1.0"
	DefaultAccept    = "application/xml, text/xml, */*"

	maxBodyBytes = 10 << 20
)

// Config controls request headers and the retry policy
type Config struct {
	UserAgent  string
	Accept     string
	Timeout    time.Duration // per attempt
	Attempts   int
	RetryDelay time.Duration // delay before attempt n+1 is n*RetryDelay
}

// DefaultConfig returns the policy used against the SASMEX feed
func DefaultConfig() Config {
	return Config{
		UserAgent:  DefaultUserAgent,
		Accept:     DefaultAccept,
		Timeout:    20 * time.Second,
		Attempts:   3,
		RetryDelay: 2 * time.Second,
	}
}

// Response is a successfully downloaded document
type Response struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client fetches documents over HTTP
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a client. Zero values in cfg fall back to DefaultConfig.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Accept == "" {
		cfg.Accept = def.Accept
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Config returns the effective configuration
func (c *Client) Config() Config { return c.cfg }

// Fetch downloads url. Cancelling ctx stops the request and any pending retry
// at once and yields an error matching ErrCancelled. Exhausted retries yield a
// *FetchError matching ErrFeedUnreachable.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	log := logger.WithContext(ctx)

	var lastErr error
	attempts := 0

	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.cfg.RetryDelay
			log.Debug("Retrying fetch", "url", url, "attempt", attempt+1, "delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, cancelled(url, ctx.Err())
			case <-timer.C:
			}
		}

		attempts++
		resp, err := c.once(ctx, url)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, cancelled(url, ctx.Err())
		}

		lastErr = err
		log.Warn("Fetch attempt failed", "url", url, "attempt", attempt+1, "error", err)

		if !transient(err) {
			break
		}
	}

	return nil, &apperrors.FetchError{URL: url, Attempts: attempts, Err: lastErr}
}

func (c *Client) once(ctx context.Context, url string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", c.cfg.Accept)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

var errInvalidRequest = errors.New("invalid request")

func transient(err error) bool {
	if errors.Is(err, errInvalidRequest) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// body read failures and other transport errors
	return !errors.Is(err, context.Canceled)
}

func cancelled(url string, cause error) error {
	return fmt.Errorf("fetch %s: %w: %w", url, apperrors.ErrCancelled, cause)
}
