package weather

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	trendNoHistory = "No past data for comparison"
	trendSimilar   = "Similar to yesterday"

	// hoursPerDay is how far back the trend comparison looks.
	hoursPerDay = 24
)

// CurrentIndex returns the index of the sample closest to now, or 0 when the
// series is empty.
func CurrentIndex(points []TimelinePoint, now time.Time) int {
	best := -1
	bestDiff := time.Duration(math.MaxInt64)
	for i, p := range points {
		diff := p.Time.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

// Trend compares the sample at current with the one a day earlier.
func Trend(points []TimelinePoint, current int) string {
	if current < hoursPerDay || current >= len(points) {
		return trendNoHistory
	}

	diff := points[current].Temp - points[current-hoursPerDay].Temp
	switch {
	case diff > 1:
		return fmt.Sprintf("%d° Warmer than yesterday", int(math.Abs(diff)))
	case diff < -1:
		return fmt.Sprintf("%d° Colder than yesterday", int(math.Abs(diff)))
	default:
		return trendSimilar
	}
}

// BuildReport derives the live snapshot, current index and trend from an
// ordered hourly series.
func BuildReport(place Place, points []TimelinePoint, now time.Time) Report {
	report := Report{
		ID:           uuid.NewString(),
		City:         place.Name,
		Timezone:     place.Timezone,
		Trend:        trendNoHistory,
		TimelineData: points,
		GeneratedAt:  now.UTC(),
	}
	if len(points) == 0 {
		return report
	}

	current := CurrentIndex(points, now)
	snap := points[current]
	tod := TimeOfDayNight
	if snap.IsDay {
		tod = TimeOfDayDay
	}

	report.CurrentIndex = current
	report.CurrentSnapshot = CurrentSnapshot{
		City:          place.Name,
		TimeOfDay:     tod,
		TimelinePoint: snap,
	}
	report.Trend = Trend(points, current)
	return report
}
