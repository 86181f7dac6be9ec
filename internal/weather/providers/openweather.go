package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-timeline/internal/resilience"
	"github.com/i474232898/weather-timeline/internal/weather"
)

// OpenWeatherGeocoder implements weather.Geocoder with the OpenWeatherMap
// direct geocoding API. It leaves the timezone empty; hourly providers fill it.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherGeocoder(client *http.Client, apiKey string) *OpenWeatherGeocoder {
	return &OpenWeatherGeocoder{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/geo/1.0/direct",
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("openweather-geocoding"),
	}
}

func (g *OpenWeatherGeocoder) Name() string {
	return "openweathermap"
}

func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, name string) (weather.Place, error) {
	if g.apiKey == "" {
		return weather.Place{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", g.apiKey)
		values.Set("q", name)
		values.Set("limit", "1")

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return weather.Place{}, err
	}
	defer resp.Body.Close()

	var results []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return weather.Place{}, err
	}
	if len(results) == 0 {
		return weather.Place{}, weather.ErrLocationNotFound
	}

	r := results[0]
	return weather.Place{Name: r.Name, Country: r.Country, Lat: r.Lat, Lon: r.Lon}, nil
}
