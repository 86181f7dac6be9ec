package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-timeline/internal/store"
	"github.com/i474232898/weather-timeline/internal/weather"
)

type stubGeocoder struct{}

func (stubGeocoder) Name() string { return "stub-geo" }

func (stubGeocoder) Geocode(_ context.Context, name string) (weather.Place, error) {
	if !strings.EqualFold(name, "Paris") {
		return weather.Place{}, weather.ErrLocationNotFound
	}
	return weather.Place{Name: "Paris", Country: "FR", Lat: 48.85, Lon: 2.35, Timezone: "UTC"}, nil
}

type stubProvider struct {
	err error
}

func (stubProvider) Name() string { return "stub" }

func (p stubProvider) FetchTimeline(_ context.Context, _ *weather.Place) ([]weather.TimelinePoint, error) {
	if p.err != nil {
		return nil, p.err
	}
	start := time.Now().UTC().Add(-24 * time.Hour)
	points := make([]weather.TimelinePoint, 72)
	for i := range points {
		points[i] = weather.TimelinePoint{
			Time:      weather.NewHour(start.Add(time.Duration(i) * time.Hour)),
			Temp:      12,
			Condition: "Partly cloudy",
			IsDay:     true,
		}
	}
	return points, nil
}

type failingNarrator struct{}

func (failingNarrator) Narrate(context.Context, weather.BriefingInput) (string, error) {
	return "", errors.New("upstream unavailable")
}

func newTestApp(t *testing.T, provider weather.Provider, narrator weather.Narrator) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	memStore := store.NewMemoryStore(10, time.Hour)
	svc := weather.NewService(memStore, []weather.Geocoder{stubGeocoder{}}, []weather.Provider{provider}, narrator)
	RegisterRoutes(app, svc)
	return app, memStore
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return resp.StatusCode, out
}

func TestRoot(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.TemplateNarrator{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Weather Chat API is running", out["message"])
}

func TestChatReturnsReport(t *testing.T) {
	app, memStore := newTestApp(t, stubProvider{}, weather.TemplateNarrator{})

	status, out := postJSON(t, app, "/chat", `{"message": "What's the weather in Paris?"}`)
	require.Equal(t, http.StatusOK, status)

	response, ok := out["response"].(map[string]any)
	require.True(t, ok, "response should be an object: %v", out)
	assert.Equal(t, "Paris", response["city"])
	assert.Len(t, response["timeline_data"], 72)
	assert.Contains(t, response, "current_snapshot")
	assert.Equal(t, "Similar to yesterday", response["trend"])

	_, err := memStore.GetLatest(weather.Location{City: "Paris"})
	assert.NoError(t, err)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider stubProvider
		message  string
		want     any
	}{
		{
			name:    "unknown city",
			message: "weather in Atlantis",
			want:    map[string]any{"error": "Could not find location: Atlantis"},
		},
		{
			name:     "provider failure",
			provider: stubProvider{err: errors.New("timeout")},
			message:  "weather in Paris",
			want:     map[string]any{"error": "Error retrieving weather data for Paris: no timeline data available for Paris"},
		},
		{
			name:    "no city",
			message: "weather?",
			want:    askForCity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, tt.provider, weather.TemplateNarrator{})

			body, err := json.Marshal(chatRequest{Message: tt.message})
			require.NoError(t, err)
			status, out := postJSON(t, app, "/chat", string(body))
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.want, out["response"])
		})
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.TemplateNarrator{})

	for _, body := range []string{`{"message": "   "}`, `{}`, `not json`} {
		status, out := postJSON(t, app, "/chat", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, true, out["error"])
	}
}

func TestNarrate(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.TemplateNarrator{})

	body := `{"weather_data": {"city": "Lisbon", "trend": "Similar to yesterday",
		"current_snapshot": {"city": "Lisbon", "temp": 18, "condition": "Clear sky", "time_of_day": "NIGHT"}}}`
	status, out := postJSON(t, app, "/narrate", body)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, out["briefing"], "Lisbon")

	status, _ = postJSON(t, app, "/narrate", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNarrateFailure(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, failingNarrator{})

	status, out := postJSON(t, app, "/narrate", `{"weather_data": {"city": "Lisbon"}}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "upstream unavailable", out["detail"])
}

func TestCurrentAndHistory(t *testing.T) {
	app, memStore := newTestApp(t, stubProvider{}, weather.TemplateNarrator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?city=Paris", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	generated := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	memStore.SaveReport(weather.Location{City: "Paris"}, weather.Report{City: "Paris", GeneratedAt: generated})

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?city=Paris", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/history?city=Paris&from=2025-03-10T00:00:00Z&to=2025-03-11T00:00:00Z", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Reports []weather.Report `json:"reports"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Reports, 1)
	assert.Equal(t, "Paris", out.Reports[0].City)
}

func TestHistoryValidation(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{}, weather.TemplateNarrator{})

	for _, target := range []string{
		"/api/v1/weather/history?from=1&to=2",
		"/api/v1/weather/history?city=Paris&from=1",
		"/api/v1/weather/history?city=Paris&from=200&to=100",
		"/api/v1/weather/history?city=Paris&from=yesterday&to=100",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}
