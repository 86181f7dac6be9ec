package weather

import (
	"context"
	"errors"
	"time"
)

// ErrLocationNotFound is returned by geocoders that know nothing about a name.
var ErrLocationNotFound = errors.New("location not found")

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, name string) (Place, error)
}

// Provider abstracts an hourly weather source (e.g. Open-Meteo, WeatherAPI).
// FetchTimeline returns samples from yesterday through the forecast horizon,
// ordered by Time ascending. It may fill place.Timezone when it was unknown.
type Provider interface {
	Name() string
	FetchTimeline(ctx context.Context, place *Place) ([]TimelinePoint, error)
}

// Narrator turns weather data into a one-sentence caption.
type Narrator interface {
	Narrate(ctx context.Context, in BriefingInput) (string, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveReport(loc Location, report Report)
	GetLatest(loc Location) (Report, error)
	GetRange(loc Location, from, to time.Time) ([]Report, error)
}
