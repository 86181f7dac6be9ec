package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-timeline/internal/weather"
)

// ErrNotFound is returned when no report is available for a city.
var ErrNotFound = errors.New("no weather data for location")

// ReportHistory is the reports generated for one city, oldest first.
type ReportHistory struct {
	Reports []weather.Report
}

// latest returns the newest report, if any.
func (h *ReportHistory) latest() (weather.Report, bool) {
	if h == nil || len(h.Reports) == 0 {
		return weather.Report{}, false
	}
	return h.Reports[len(h.Reports)-1], true
}

// prune drops reports beyond maxHistory and reports generated before cutoff.
// The newest report always survives so a city never loses its last answer.
func (h *ReportHistory) prune(maxHistory int, cutoff time.Time) {
	if maxHistory > 0 && len(h.Reports) > maxHistory {
		h.Reports = h.Reports[len(h.Reports)-maxHistory:]
	}
	if cutoff.IsZero() {
		return
	}
	keep := len(h.Reports) - 1
	for i, r := range h.Reports[:keep] {
		if !r.GeneratedAt.Before(cutoff) {
			keep = i
			break
		}
	}
	h.Reports = h.Reports[keep:]
}

// MemoryStore keeps per-city report histories in memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*ReportHistory

	maxHistory int           // reports kept per city, <= 0 for unlimited
	maxAge     time.Duration // age after which reports are dropped, 0 to keep

	now func() time.Time
}

// NewMemoryStore creates a store with the given retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReportHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReport appends report to the city's history and applies retention.
func (s *MemoryStore) SaveReport(loc weather.Location, report weather.Report) {
	var cutoff time.Time
	if s.maxAge > 0 {
		cutoff = s.now().Add(-s.maxAge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.data[loc.Key()]
	if history == nil {
		history = &ReportHistory{}
		s.data[loc.Key()] = history
	}
	history.Reports = append(history.Reports, report)
	history.prune(s.maxHistory, cutoff)
}

// GetLatest returns the most recently generated report for a city.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.data[loc.Key()].latest(); ok {
		return r, nil
	}
	return weather.Report{}, ErrNotFound
}

// GetRange returns the reports whose timeline overlaps [from, to], oldest
// first. A report without a timeline covers only its generation time.
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if history == nil {
		return nil, ErrNotFound
	}

	var result []weather.Report
	for _, r := range history.Reports {
		start, end := r.Span()
		if !end.Before(from) && !start.After(to) {
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
