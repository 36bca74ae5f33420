package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/alerts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, []string{"Mayor", "Menor"}, q["severity"])
		assert.Equal(t, "2024-02-10T08:00:00Z", q.Get("since"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Empty(t, q.Get("offset"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "a2", "severity": "Mayor", "title": "Sismo fuerte", "magnitude": 7.1, "occurred_at": "2024-02-10T09:00:00Z"},
			},
			"count": 1,
		})
	})
	mux.HandleFunc("/v1/alerts/latest", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": "a3", "severity": "Menor", "occurred_at": "2024-02-10T10:00:00Z"})
	})
	mux.HandleFunc("/v1/alerts/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found", "message": "Alert not found"})
	})
	mux.HandleFunc("/v1/earthquakes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4.5", r.URL.Query().Get("min_magnitude"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":  []map[string]interface{}{{"id": "us2", "magnitude": 6.4, "place": "30 km SW of Acapulco", "tsunami": true}},
			"count": 1,
		})
	})
	mux.HandleFunc("/v1/admin/poll/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Admin-Secret") != "s3cret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if r.URL.Path == "/v1/admin/poll/usgs" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Conflict", "message": "A poll of usgs is already running"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Alerts(t *testing.T) {
	c := New(newTestServer(t).URL, "")

	alerts, err := c.Alerts(context.Background(), AlertParams{
		Severities: []string{"Mayor", "Menor"},
		Since:      time.Date(2024, 2, 10, 2, 0, 0, 0, time.FixedZone("CST", -6*3600)),
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a2", alerts[0].ID)
	require.NotNil(t, alerts[0].Magnitude)
	assert.InDelta(t, 7.1, *alerts[0].Magnitude, 1e-9)
}

func TestClient_LatestAlert(t *testing.T) {
	c := New(newTestServer(t).URL, "")

	alert, err := c.LatestAlert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a3", alert.ID)
	assert.Equal(t, "Menor", alert.Severity)
}

func TestClient_AlertNotFound(t *testing.T) {
	c := New(newTestServer(t).URL, "")

	_, err := c.Alert(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestClient_Earthquakes(t *testing.T) {
	c := New(newTestServer(t).URL+"/", "")

	quakes, err := c.Earthquakes(context.Background(), EarthquakeParams{MinMagnitude: 4.5})
	require.NoError(t, err)
	require.Len(t, quakes, 1)
	assert.True(t, quakes[0].Tsunami)
}

func TestClient_TriggerPoll(t *testing.T) {
	srv := newTestServer(t)

	require.NoError(t, New(srv.URL, "s3cret").TriggerPoll(context.Background(), "sasmex"))

	err := New(srv.URL, "s3cret").TriggerPoll(context.Background(), "usgs")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "already running")

	err = New(srv.URL, "").TriggerPoll(context.Background(), "sasmex")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
