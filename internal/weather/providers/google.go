package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-timeline/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleKeyOnce sync.Once

// GoogleGeocoder implements weather.Geocoder on top of the Google Geocoding API.
type GoogleGeocoder struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	googleKeyOnce.Do(func() {
		geocoder.ApiKey = apiKey
	})
	return &GoogleGeocoder{lookup: geocoder.Geocoding}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

// Geocode runs the blocking lookup on its own goroutine so ctx can abandon it.
func (g *GoogleGeocoder) Geocode(ctx context.Context, name string) (weather.Place, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)

	go func() {
		loc, err := g.lookup(geocoder.Address{City: name})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Place{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			if strings.Contains(r.err.Error(), "ZERO_RESULTS") {
				return weather.Place{}, weather.ErrLocationNotFound
			}
			return weather.Place{}, r.err
		}
		return weather.Place{Name: name, Lat: r.loc.Latitude, Lon: r.loc.Longitude}, nil
	}
}
