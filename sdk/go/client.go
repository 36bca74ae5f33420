// Package sdk is a small client for the SasmexMonitor HTTP API.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is used when New is given an empty base URL
const DefaultBaseURL = "http://localhost:8080"

// ErrNotFound is returned when the requested record does not exist
var ErrNotFound = errors.New("not found")

// Coordinates of an epicenter
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alert is a SASMEX alert as served by the API
type Alert struct {
	ID          string       `json:"id"`
	OccurredAt  time.Time    `json:"occurred_at"`
	Title       string       `json:"title"`
	Severity    string       `json:"severity"`
	Description string       `json:"description"`
	Magnitude   *float64     `json:"magnitude,omitempty"`
	Epicenter   string       `json:"epicenter,omitempty"`
	DepthKM     *float64     `json:"depth_km,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Earthquake is a USGS event as served by the API
type Earthquake struct {
	ID        string    `json:"id"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place"`
	Time      time.Time `json:"time"`
	Updated   time.Time `json:"updated"`
	URL       string    `json:"url"`
	Tsunami   bool      `json:"tsunami"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	DepthKM   float64   `json:"depth_km"`
}

// AlertParams filters GET /v1/alerts. Zero values are omitted.
type AlertParams struct {
	Severities []string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// EarthquakeParams filters GET /v1/earthquakes. Zero values are omitted.
type EarthquakeParams struct {
	MinMagnitude float64
	Since        time.Time
	Until        time.Time
	Limit        int
}

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to one SasmexMonitor instance
type Client struct {
	http *resty.Client
}

// New creates a client. adminSecret is only needed for TriggerPoll.
func New(baseURL, adminSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json").
		SetError(&errorResponse{})
	if adminSecret != "" {
		r.SetHeader("X-Admin-Secret", adminSecret)
	}
	return &Client{http: r}
}

// Alerts lists alerts, newest first
func (c *Client) Alerts(ctx context.Context, p AlertParams) ([]Alert, error) {
	req := c.http.R().SetContext(ctx)
	for _, s := range p.Severities {
		req.QueryParam.Add("severity", s)
	}
	setTime(req, "since", p.Since)
	setTime(req, "until", p.Until)
	setInt(req, "limit", p.Limit)
	setInt(req, "offset", p.Offset)

	var out listResponse[Alert]
	if err := do(req.SetResult(&out), http.MethodGet, "/v1/alerts"); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// LatestAlert returns the most recent alert; ErrNotFound when none is stored
func (c *Client) LatestAlert(ctx context.Context) (*Alert, error) {
	var out Alert
	if err := do(c.http.R().SetContext(ctx).SetResult(&out), http.MethodGet, "/v1/alerts/latest"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Alert fetches one alert by id
func (c *Client) Alert(ctx context.Context, id string) (*Alert, error) {
	var out Alert
	req := c.http.R().SetContext(ctx).SetPathParam("id", id).SetResult(&out)
	if err := do(req, http.MethodGet, "/v1/alerts/{id}"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Earthquakes lists USGS events, newest first
func (c *Client) Earthquakes(ctx context.Context, p EarthquakeParams) ([]Earthquake, error) {
	req := c.http.R().SetContext(ctx)
	if p.MinMagnitude > 0 {
		req.SetQueryParam("min_magnitude", strconv.FormatFloat(p.MinMagnitude, 'f', -1, 64))
	}
	setTime(req, "since", p.Since)
	setTime(req, "until", p.Until)
	setInt(req, "limit", p.Limit)

	var out listResponse[Earthquake]
	if err := do(req.SetResult(&out), http.MethodGet, "/v1/earthquakes"); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// TriggerPoll asks the server to poll source ("sasmex" or "usgs") now
func (c *Client) TriggerPoll(ctx context.Context, source string) error {
	req := c.http.R().SetContext(ctx).SetPathParam("source", source)
	return do(req, http.MethodPost, "/v1/admin/poll/{source}")
}

func do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	msg := strings.TrimSpace(resp.String())
	if e, ok := resp.Error().(*errorResponse); ok && e.Message != "" {
		msg = e.Message
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

func setTime(req *resty.Request, key string, t time.Time) {
	if !t.IsZero() {
		req.SetQueryParam(key, t.UTC().Format(time.RFC3339))
	}
}

func setInt(req *resty.Request, key string, v int) {
	if v > 0 {
		req.SetQueryParam(key, strconv.Itoa(v))
	}
}
