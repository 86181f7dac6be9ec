package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-timeline/internal/weather"
)

func TestOpenMeteoProviderFetchTimeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("past_days"))
		assert.Equal(t, "2", q.Get("forecast_days"))
		assert.Equal(t, "auto", q.Get("timezone"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"timezone": "Europe/Paris",
			"hourly": {
				"time": ["2025-03-01T06:00", "2025-03-01T07:00"],
				"temperature_2m": [3.5, 4.1],
				"weathercode": [61, 0],
				"relative_humidity_2m": [88, 80],
				"apparent_temperature": [1.2, 2.0],
				"is_day": [0, 1],
				"wind_speed_10m": [12.5, 10.0]
			}
		}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL

	place := weather.Place{Name: "Paris", Lat: 48.85, Lon: 2.35}
	points, err := p.FetchTimeline(context.Background(), &place)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Europe/Paris", place.Timezone)
	assert.Equal(t, "Rain: Slight, moderate and heavy intensity", points[0].Condition)
	assert.False(t, points[0].IsDay)
	assert.True(t, points[1].IsDay)
	assert.Equal(t, 88, points[0].Humidity)
	assert.Equal(t, 7, points[1].Time.Hour())
	assert.Equal(t, "Europe/Paris", points[1].Time.Location().String())
}

func openMeteoServer(t *testing.T, timezone string, hours []string) *httptest.Server {
	t.Helper()
	n := len(hours)
	hourly := map[string]any{
		"time":                 hours,
		"temperature_2m":       make([]float64, n),
		"weathercode":          make([]int, n),
		"relative_humidity_2m": make([]float64, n),
		"apparent_temperature": make([]float64, n),
		"is_day":               make([]int, n),
		"wind_speed_10m":       make([]float64, n),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"timezone": timezone, "hourly": hourly})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenMeteoProviderSpringForward(t *testing.T) {
	srv := openMeteoServer(t, "Europe/Berlin", []string{
		"2025-03-30T00:00", "2025-03-30T01:00", "2025-03-30T02:00", "2025-03-30T03:00", "2025-03-30T04:00",
	})
	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL

	place := weather.Place{Name: "Berlin", Timezone: "Europe/Berlin"}
	points, err := p.FetchTimeline(context.Background(), &place)
	require.NoError(t, err)
	require.Len(t, points, 4)

	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Time.After(points[i-1].Time.Time), "timeline not strictly ascending at %d", i)
	}
	assert.Equal(t, []int{0, 1, 3, 4}, []int{
		points[0].Time.Hour(), points[1].Time.Hour(), points[2].Time.Hour(), points[3].Time.Hour(),
	})
}

func TestOpenMeteoProviderUnknownTimezone(t *testing.T) {
	srv := openMeteoServer(t, "Mars/Olympus_Mons", []string{"2025-03-01T06:00", "2025-03-01T07:00"})
	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL

	place := weather.Place{Name: "Nowhere"}
	points, err := p.FetchTimeline(context.Background(), &place)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.UTC, points[0].Time.Location())
}

func TestOpenMeteoProviderRejectsRaggedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"time": ["2025-03-01T06:00"], "temperature_2m": []}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL

	_, err := p.FetchTimeline(context.Background(), &weather.Place{Timezone: "UTC"})
	assert.Error(t, err)
}

func TestOpenMeteoGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Atlantis" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"results": [{"name": "Berlin", "country": "Germany", "latitude": 52.52, "longitude": 13.41, "timezone": "Europe/Berlin"}]}`))
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.Client())
	g.baseURL = srv.URL

	place, err := g.Geocode(context.Background(), "berlin")
	require.NoError(t, err)
	assert.Equal(t, weather.Place{Name: "Berlin", Country: "Germany", Lat: 52.52, Lon: 13.41, Timezone: "Europe/Berlin"}, place)

	_, err = g.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}

func TestOpenWeatherGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`[{"name": "London", "country": "GB", "lat": 51.5, "lon": -0.12}]`))
	}))
	defer srv.Close()

	g := NewOpenWeatherGeocoder(srv.Client(), "secret")
	g.baseURL = srv.URL

	place, err := g.Geocode(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "London", place.Name)
	assert.Empty(t, place.Timezone)

	_, err = NewOpenWeatherGeocoder(srv.Client(), "").Geocode(context.Background(), "London")
	assert.Error(t, err)
}

func TestWeatherAPIProviderStitchesHistory(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	day := time.Date(2025, 3, 2, 0, 0, 0, 0, loc)

	hour := func(ts time.Time, temp float64) map[string]any {
		return map[string]any{
			"time_epoch": ts.Unix(), "temp_c": temp, "feelslike_c": temp - 1,
			"humidity": 60, "wind_kph": 8.0, "is_day": 1,
			"condition": map[string]any{"text": "Patchy rain possible", "code": 1063},
		}
	}
	payload := func(hours ...map[string]any) []byte {
		b, _ := json.Marshal(map[string]any{
			"location": map[string]any{"tz_id": "Asia/Tokyo", "localtime_epoch": day.Add(9 * time.Hour).Unix()},
			"forecast": map[string]any{"forecastday": []any{map[string]any{"hour": hours}}},
		})
		return b
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forecast.json":
			_, _ = w.Write(payload(hour(day, 5), hour(day.Add(time.Hour), 6)))
		case "/history.json":
			assert.Equal(t, "2025-03-01", r.URL.Query().Get("dt"))
			_, _ = w.Write(payload(hour(day.Add(-2*time.Hour), 3), hour(day.Add(-time.Hour), 4)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "key")
	p.baseURL = srv.URL

	place := weather.Place{Lat: 35.68, Lon: 139.69}
	points, err := p.FetchTimeline(context.Background(), &place)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, "Asia/Tokyo", place.Timezone)
	assert.Equal(t, []float64{3, 4, 5, 6}, []float64{points[0].Temp, points[1].Temp, points[2].Temp, points[3].Temp})
	assert.Equal(t, "Patchy rain possible", points[0].Condition)
	assert.Equal(t, 1063, points[0].WeatherCode)
}

func TestGoogleGeocoder(t *testing.T) {
	g := NewGoogleGeocoder("")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		if a.City == "Nowhere" {
			return geocoder.Location{}, errors.New("ZERO_RESULTS")
		}
		return geocoder.Location{Latitude: 1.5, Longitude: 2.5}, nil
	}

	place, err := g.Geocode(context.Background(), "Quito")
	require.NoError(t, err)
	assert.Equal(t, weather.Place{Name: "Quito", Lat: 1.5, Lon: 2.5}, place)

	_, err = g.Geocode(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}

func TestLLMNarrator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, `"city":"Oslo"`)
		}

		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "  Bundle up, Oslo!  "}}]}`))
	}))
	defer srv.Close()

	n := NewLLMNarrator(srv.Client(), srv.URL+"/", "token", "test-model", 10, 1)
	got, err := n.Narrate(context.Background(), weather.BriefingInput{City: "Oslo"})
	require.NoError(t, err)
	assert.Equal(t, "Bundle up, Oslo!", got)
}
