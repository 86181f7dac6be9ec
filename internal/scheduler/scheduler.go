package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-timeline/internal/weather"
)

const defaultInterval = 15 * time.Minute

// Refresher fetches and stores a fresh report for a location.
type Refresher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) (weather.Report, error)
}

// Scheduler periodically refreshes reports for tracked cities so chat
// queries about them can be served from the store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	locations []weather.Location
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, service Refresher) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("INFO: scheduler: no tracked cities configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() { s.RefreshAll() })
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RefreshAll refreshes every tracked city concurrently and waits for all of
// them. It returns the number of successful refreshes.
func (s *Scheduler) RefreshAll() int {
	log.Println("INFO: scheduler: refreshing tracked cities")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if _, err := s.service.FetchAndStore(ctx, loc); err != nil {
				log.Printf("ERROR: scheduler: refresh failed for %s: %v", loc.Key(), err)
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Printf("INFO: scheduler: refreshed %d/%d cities", ok, len(s.locations))
	return ok
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
