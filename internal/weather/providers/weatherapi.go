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

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com, stitching
// yesterday's history onto a two-day hourly forecast.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIPayload struct {
	Location struct {
		TzID           string `json:"tz_id"`
		LocaltimeEpoch int64  `json:"localtime_epoch"`
	} `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Hour []struct {
				TimeEpoch  int64   `json:"time_epoch"`
				TempC      float64 `json:"temp_c"`
				FeelsLikeC float64 `json:"feelslike_c"`
				Humidity   float64 `json:"humidity"`
				WindKph    float64 `json:"wind_kph"`
				IsDay      int     `json:"is_day"`
				Condition  struct {
					Text string `json:"text"`
					Code int    `json:"code"`
				} `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchTimeline(ctx context.Context, place *weather.Place) ([]weather.TimelinePoint, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}

	forecast, err := p.fetch(ctx, "forecast.json", place, func(v url.Values) {
		v.Set("days", "2")
	})
	if err != nil {
		return nil, err
	}

	if place.Timezone == "" {
		place.Timezone = forecast.Location.TzID
	}
	loc, err := time.LoadLocation(place.Timezone)
	if err != nil {
		loc = time.UTC
	}

	localNow := time.Unix(forecast.Location.LocaltimeEpoch, 0).In(loc)
	yesterday := localNow.AddDate(0, 0, -1).Format("2006-01-02")

	points := make([]weather.TimelinePoint, 0, 72)
	history, err := p.fetch(ctx, "history.json", place, func(v url.Values) {
		v.Set("dt", yesterday)
	})
	if err != nil {
		// History is a paid feature on some plans; the forecast alone is still useful.
		log.Printf("weatherapi history unavailable for %s: %v", yesterday, err)
	} else {
		points = appendWeatherAPIHours(points, history, loc)
	}
	points = appendWeatherAPIHours(points, forecast, loc)
	return points, nil
}

func (p *WeatherAPIProvider) fetch(ctx context.Context, endpoint string, place *weather.Place, extra func(url.Values)) (weatherAPIPayload, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%f,%f", place.Lat, place.Lon))
		extra(values)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := resilience.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weatherAPIPayload{}, err
	}
	defer resp.Body.Close()

	var payload weatherAPIPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weatherAPIPayload{}, err
	}
	return payload, nil
}

// appendWeatherAPIHours keeps the series strictly ascending, dropping hours
// that overlap what is already there.
func appendWeatherAPIHours(points []weather.TimelinePoint, payload weatherAPIPayload, loc *time.Location) []weather.TimelinePoint {
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			ts := time.Unix(h.TimeEpoch, 0).In(loc)
			if n := len(points); n > 0 && !ts.After(points[n-1].Time.Time) {
				continue
			}
			points = append(points, weather.TimelinePoint{
				Time:        weather.NewHour(ts),
				Temp:        h.TempC,
				FeelsLike:   h.FeelsLikeC,
				Humidity:    int(h.Humidity),
				WindSpeed:   h.WindKph,
				Condition:   h.Condition.Text,
				IsDay:       h.IsDay == 1,
				WeatherCode: h.Condition.Code,
			})
		}
	}
	return points
}
