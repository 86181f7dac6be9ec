package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-timeline/internal/timeline"
	"github.com/i474232898/weather-timeline/internal/weather"
)

var _ timeline.Source = (*Client)(nil)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL+"/")
}

func chatHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "weather in Paris", req.Message)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestQueryReport(t *testing.T) {
	body := `{"response": {
		"city": "Paris",
		"current_index": 1,
		"trend": "Similar to yesterday",
		"current_snapshot": {"city": "Paris", "time_of_day": "NIGHT", "time": "2025-03-10T01:00",
			"temp": 7.5, "feels_like": 5, "humidity": 80, "wind_speed": 12, "condition": "Clear sky", "is_day": false},
		"timeline_data": [
			{"time": "2025-03-10T00:00", "temp": 8, "condition": "Overcast", "is_day": false},
			{"time": "2025-03-10T01:00", "temp": 7.5, "condition": "Clear sky", "is_day": false}
		]
	}}`
	c := newTestClient(t, chatHandler(t, body))

	report, err := c.Query(context.Background(), "weather in Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", report.City)
	assert.Equal(t, 1, report.CurrentIndex)
	assert.True(t, report.CurrentSnapshot.IsNight())
	require.Len(t, report.TimelineData, 2)

	want := weather.TimelinePoint{
		Time:      weather.NewHour(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		Temp:      8,
		Condition: "Overcast",
	}
	if diff := cmp.Diff(want, report.TimelineData[0]); diff != "" {
		t.Errorf("timeline point mismatch (-want +got):\n%s", diff)
	}
}

func TestQuerySinglePointShape(t *testing.T) {
	body := `{"response": {"city": "Paris", "condition": "Light drizzle", "temp": 11, "feels_like": 9,
		"humidity": 91, "wind_speed": 20, "time_of_day": "DAY"}}`
	c := newTestClient(t, chatHandler(t, body))

	report, err := c.Query(context.Background(), "weather in Paris")
	require.NoError(t, err)
	assert.Empty(t, report.TimelineData)
	assert.Equal(t, "Paris", report.CurrentSnapshot.City)
	assert.Equal(t, "Light drizzle", report.CurrentSnapshot.Condition)
	assert.True(t, report.CurrentSnapshot.IsDay)
	assert.Equal(t, 91, report.CurrentSnapshot.Humidity)
}

func TestQueryServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain string", `{"response": "I can only talk about the weather."}`, "I can only talk about the weather."},
		{"error object", `{"response": {"error": "Could not find location: Atlantis"}}`, "Could not find location: Atlantis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, chatHandler(t, tt.body))

			_, err := c.Query(context.Background(), "weather in Paris")
			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.want, svcErr.UserMessage())
		})
	}
}

func TestQueryUnexpectedShape(t *testing.T) {
	for _, body := range []string{
		`{"response": {"foo": 1}}`,
		`{"response": [1, 2]}`,
		`{"other": true}`,
		`not json`,
	} {
		c := newTestClient(t, chatHandler(t, body))

		_, err := c.Query(context.Background(), "weather in Paris")
		require.ErrorIs(t, err, ErrUnexpectedResponse, body)

		var uf timeline.UserFacing
		require.True(t, errors.As(err, &uf))
		assert.Equal(t, "Received an unexpected response from the server.", uf.UserMessage())
	}
}

func TestQueryClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := c.Query(context.Background(), "weather in Paris")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var uf timeline.UserFacing
	assert.False(t, errors.As(err, &uf), "transport errors get the generic notice")
}

func TestNarrate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/narrate", r.URL.Path)

		var req narrateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Lisbon", req.WeatherData.City)
		if assert.NotNil(t, req.WeatherData.CurrentSnapshot) {
			assert.Equal(t, 18.0, req.WeatherData.CurrentSnapshot.Temp)
		}

		_ = json.NewEncoder(w).Encode(narrateResponse{Briefing: "Lisbon basks at 18°C."})
	})

	report := weather.Report{
		City:            "Lisbon",
		CurrentSnapshot: weather.CurrentSnapshot{City: "Lisbon", TimelinePoint: weather.TimelinePoint{Temp: 18}},
	}
	text, err := c.Narrate(context.Background(), report.Briefing())
	require.NoError(t, err)
	assert.Equal(t, "Lisbon basks at 18°C.", text)
}
