package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-timeline/internal/resilience"
	"github.com/i474232898/weather-timeline/internal/weather"
)

// OpenMeteoProvider implements weather.Provider for the Open-Meteo hourly
// forecast API. It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchTimeline returns yesterday plus two forecast days of hourly samples.
func (p *OpenMeteoProvider) FetchTimeline(ctx context.Context, place *weather.Place) ([]weather.TimelinePoint, error) {
	tz := place.Timezone
	if tz == "" {
		tz = "auto"
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", place.Lat))
		values.Set("longitude", fmt.Sprintf("%f", place.Lon))
		values.Set("hourly", "temperature_2m,weathercode,relative_humidity_2m,apparent_temperature,is_day,wind_speed_10m")
		values.Set("timezone", tz)
		values.Set("past_days", "1")
		values.Set("forecast_days", "2")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Timezone string `json:"timezone"`
		Hourly   struct {
			Time        []string  `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
			WeatherCode []int     `json:"weathercode"`
			Humidity    []float64 `json:"relative_humidity_2m"`
			FeelsLike   []float64 `json:"apparent_temperature"`
			IsDay       []int     `json:"is_day"`
			WindSpeed   []float64 `json:"wind_speed_10m"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if place.Timezone == "" {
		place.Timezone = payload.Timezone
	}
	loc, err := time.LoadLocation(place.Timezone)
	if err != nil {
		log.Printf("ERROR: openmeteo: unknown timezone %q for %s, using UTC: %v", place.Timezone, place.Name, err)
		loc = time.UTC
	}

	h := payload.Hourly
	n := len(h.Time)
	for _, l := range []int{len(h.Temperature), len(h.WeatherCode), len(h.Humidity), len(h.FeelsLike), len(h.IsDay), len(h.WindSpeed)} {
		if l != n {
			return nil, fmt.Errorf("openmeteo: hourly arrays have mismatched lengths")
		}
	}

	points := make([]weather.TimelinePoint, 0, n)
	for i := 0; i < n; i++ {
		ts, err := weather.ParseHour(h.Time[i], loc)
		if err != nil {
			return nil, fmt.Errorf("openmeteo: %w", err)
		}
		// Wall-clock hours skipped by a DST change collapse onto the next one.
		if n := len(points); n > 0 && !ts.After(points[n-1].Time.Time) {
			log.Printf("DEBUG: openmeteo: dropping non-ascending hour %s for %s", h.Time[i], place.Name)
			continue
		}
		points = append(points, weather.TimelinePoint{
			Time:        weather.NewHour(ts),
			Temp:        h.Temperature[i],
			FeelsLike:   h.FeelsLike[i],
			Humidity:    int(h.Humidity[i]),
			WindSpeed:   h.WindSpeed[i],
			Condition:   weather.ConditionText(h.WeatherCode[i]),
			IsDay:       h.IsDay[i] == 1,
			WeatherCode: h.WeatherCode[i],
		})
	}

	return points, nil
}

// OpenMeteoGeocoder implements weather.Geocoder with the Open-Meteo
// geocoding API, which also reports the place's timezone.
type OpenMeteoGeocoder struct {
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoGeocoder(client *http.Client) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("openmeteo-geocoding"),
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return "openmeteo-geocoding"
}

func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, name string) (weather.Place, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", name)
		values.Set("count", "1")
		values.Set("language", "en")
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return weather.Place{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Timezone  string  `json:"timezone"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Place{}, err
	}
	if len(payload.Results) == 0 {
		return weather.Place{}, weather.ErrLocationNotFound
	}

	r := payload.Results[0]
	tz := r.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return weather.Place{
		Name:     r.Name,
		Country:  r.Country,
		Lat:      r.Latitude,
		Lon:      r.Longitude,
		Timezone: tz,
	}, nil
}
