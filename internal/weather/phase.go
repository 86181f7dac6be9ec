package weather

import "github.com/i474232898/weather-timeline/internal/common"

// Phase labels an hour of the timeline for display weighting.
type Phase string

const (
	PhaseDay      Phase = "day"
	PhaseNight    Phase = "night"
	PhaseSunrise  Phase = "sunrise"
	PhaseSunset   Phase = "sunset"
	PhaseTwilight Phase = "twilight"
)

// ClassifyPhase labels isDay[index] using only its immediate neighbours.
// A missing neighbour never overrides. Out-of-range indices are clamped and
// an empty sequence is reported as night.
func ClassifyPhase(isDay []bool, index int) Phase {
	index = common.ClampIndex(index, len(isDay))
	if index < 0 {
		return PhaseNight
	}

	hasPrev := index > 0
	hasNext := index < len(isDay)-1

	if isDay[index] {
		if hasPrev && !isDay[index-1] {
			return PhaseSunrise
		}
		if hasNext && !isDay[index+1] {
			return PhaseSunset
		}
		return PhaseDay
	}

	if hasPrev && isDay[index-1] {
		return PhaseTwilight
	}
	return PhaseNight
}

// Phases labels every point of an ordered timeline.
func Phases(points []TimelinePoint) []Phase {
	isDay := make([]bool, len(points))
	for i, p := range points {
		isDay[i] = p.IsDay
	}

	phases := make([]Phase, len(points))
	for i := range points {
		phases[i] = ClassifyPhase(isDay, i)
	}
	return phases
}
