package usgs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/fetch"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// DefaultBaseURL is the root of the USGS summary feeds
const DefaultBaseURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/"

// Summary feed names
const (
	FeedAllHour          = "all_hour"
	FeedAllDay           = "all_day"
	Feed25Hour           = "2.5_hour"
	Feed25Day            = "2.5_day"
	Feed25Week           = "2.5_week"
	Feed25Month          = "2.5_month"
	FeedSignificantHour  = "significant_hour"
	FeedSignificantDay   = "significant_day"
	FeedSignificantWeek  = "significant_week"
	FeedSignificantMonth = "significant_month"
)

// DefaultFeed is polled when no feed is configured
const DefaultFeed = Feed25Day

var knownFeeds = map[string]bool{
	FeedAllHour: true, FeedAllDay: true,
	Feed25Hour: true, Feed25Day: true, Feed25Week: true, Feed25Month: true,
	FeedSignificantHour: true, FeedSignificantDay: true, FeedSignificantWeek: true, FeedSignificantMonth: true,
}

// ValidFeed reports whether name is a known summary feed
func ValidFeed(name string) bool { return knownFeeds[name] }

// Client fetches USGS summary feeds
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a client; zero arguments fall back to the public defaults
func NewClient(baseURL string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries < 0 {
		retries = 0
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", fetch.DefaultUserAgent).
		SetHeader("Accept", "application/geo+json, application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == 429
		})

	return &Client{http: rc, baseURL: baseURL}
}

// FeedURL returns the address of a summary feed
func (c *Client) FeedURL(feedName string) string {
	return c.baseURL + feedName + ".geojson"
}

// Fetch downloads and parses a summary feed
func (c *Client) Fetch(ctx context.Context, feedName string) ([]models.Earthquake, error) {
	if !ValidFeed(feedName) {
		return nil, fmt.Errorf("%w: unknown USGS feed %q", apperrors.ErrInvalidInput, feedName)
	}
	url := c.FeedURL(feedName)

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", url, apperrors.ErrCancelled, ctx.Err())
	}
	attempts := 1
	if resp != nil && resp.Request != nil {
		attempts = resp.Request.Attempt
	}
	if err != nil {
		return nil, &apperrors.FetchError{URL: url, Attempts: attempts, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &apperrors.FetchError{URL: url, Attempts: attempts, Err: &fetch.StatusError{Code: resp.StatusCode(), Status: http.StatusText(resp.StatusCode())}}
	}

	quakes := ParseFeatureCollection(resp.Body())
	logger.WithContext(ctx).Debug("USGS feed parsed", "feed", feedName, "count", len(quakes), "duration", resp.Time())
	return quakes, nil
}
