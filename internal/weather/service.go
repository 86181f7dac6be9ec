package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-timeline/internal/timeutil"
)

// ErrEmptyQuery is returned when a chat message names no location.
var ErrEmptyQuery = errors.New("empty query")

// Service resolves chat queries into reports using geocoders, hourly
// providers and a narrator, caching results in a Store.
type Service struct {
	store     Store
	geocoders []Geocoder
	providers []Provider
	narrator  Narrator
	clock     timeutil.Clock
	cacheTTL  time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used to locate "now" in a timeline.
func WithClock(c timeutil.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithCacheTTL makes Resolve reuse stored reports younger than ttl.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

// NewService creates a new Service.
func NewService(store Store, geocoders []Geocoder, providers []Provider, narrator Narrator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		geocoders: geocoders,
		providers: providers,
		narrator:  narrator,
		clock:     timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve answers a free-text chat message with a report for the location it names.
func (s *Service) Resolve(ctx context.Context, message string) (Report, error) {
	city := ExtractLocation(message)
	if city == "" {
		return Report{}, ErrEmptyQuery
	}
	loc := Location{City: city}

	if s.cacheTTL > 0 {
		if cached, err := s.store.GetLatest(storeKey(loc)); err == nil && s.clock.Now().Sub(cached.GeneratedAt) < s.cacheTTL {
			log.Printf("DEBUG: serving cached report for %s (age %s)", loc.Key(), s.clock.Now().Sub(cached.GeneratedAt).Round(time.Second))
			return cached, nil
		}
	}

	return s.FetchAndStore(ctx, loc)
}

// FetchAndStore geocodes the location, fetches hourly data from all providers
// concurrently, builds a report from the highest-priority successful
// provider and stores it.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) (Report, error) {
	log.Printf("DEBUG: FetchAndStore called for %s with %d providers", loc.Key(), len(s.providers))
	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch weather data for %s", loc.Key())
		return Report{}, fmt.Errorf("no weather providers configured")
	}

	place, err := s.geocode(ctx, loc.City)
	if err != nil {
		return Report{}, err
	}

	type result struct {
		points []TimelinePoint
		place  Place
		err    error
	}

	var wg sync.WaitGroup
	results := make([]result, len(s.providers))

	for i, p := range s.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			pl := place
			points, err := p.FetchTimeline(ctx, &pl)
			if err != nil {
				// Log and continue; a lower-priority provider may still answer.
				log.Printf("provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
			}
			results[i] = result{points: points, place: pl, err: err}
		}()
	}

	wg.Wait()

	for _, r := range results {
		if r.err != nil || len(r.points) == 0 {
			continue
		}
		report := BuildReport(r.place, r.points, s.clock.Now())
		s.store.SaveReport(storeKey(loc), report)
		return report, nil
	}

	log.Printf("no successful provider readings for %s", loc.Key())
	return Report{}, fmt.Errorf("no timeline data available for %s", loc.City)
}

func (s *Service) geocode(ctx context.Context, name string) (Place, error) {
	var lastErr error
	for _, g := range s.geocoders {
		place, err := g.Geocode(ctx, name)
		if err == nil {
			return place, nil
		}
		if !errors.Is(err, ErrLocationNotFound) {
			log.Printf("geocoder %s failed for %q: %v", g.Name(), name, err)
			lastErr = err
		}
	}
	if lastErr != nil {
		return Place{}, fmt.Errorf("geocoding %s: %w", name, lastErr)
	}
	return Place{}, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
}

// Narrate produces a one-sentence caption for the given weather data.
func (s *Service) Narrate(ctx context.Context, in BriefingInput) (string, error) {
	if s.narrator == nil {
		return "", fmt.Errorf("no narrator configured")
	}
	return s.narrator.Narrate(ctx, in)
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Report, error) {
	return s.store.GetLatest(storeKey(loc))
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Report, error) {
	return s.store.GetRange(storeKey(loc), from, to)
}

// storeKey drops the country: chat queries name only a city, and reports
// warmed for "Paris:FR" must be found by "weather in Paris".
func storeKey(loc Location) Location {
	return Location{City: loc.City}
}
