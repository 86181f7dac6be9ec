package timeline

import "github.com/i474232898/weather-timeline/internal/weather"

// Effects is everything the decorative layer may read. Renderers are a pure
// function of this record.
type Effects struct {
	Category      weather.Category `json:"type"`
	IsNight       bool             `json:"isNight"`
	RotationAngle float64          `json:"rotationAngle"`
}

// DisplayedPoint is the sample the dashboard shows: the live snapshot, or
// the selected timeline entry reshaped to the same fields.
type DisplayedPoint struct {
	City      string            `json:"city"`
	TimeOfDay weather.TimeOfDay `json:"time_of_day"`
	weather.TimelinePoint
	Classification weather.Classification `json:"classification"`
}

func displayedFromSnapshot(snap weather.CurrentSnapshot) DisplayedPoint {
	night := snap.IsNight()
	tod := weather.TimeOfDayDay
	if night {
		tod = weather.TimeOfDayNight
	}
	return DisplayedPoint{
		City:           snap.City,
		TimeOfDay:      tod,
		TimelinePoint:  snap.TimelinePoint,
		Classification: weather.Classify(snap.Condition, night),
	}
}

// displayedFromPoint classifies p from its own condition and day flag rather
// than inheriting anything from the live snapshot.
func displayedFromPoint(city string, p weather.TimelinePoint) DisplayedPoint {
	tod := weather.TimeOfDayDay
	if !p.IsDay {
		tod = weather.TimeOfDayNight
	}
	return DisplayedPoint{
		City:           city,
		TimeOfDay:      tod,
		TimelinePoint:  p,
		Classification: weather.Classify(p.Condition, !p.IsDay),
	}
}

// StripItem is one entry of the scrollable timeline strip.
type StripItem struct {
	Index    int           `json:"index"`
	Time     weather.Hour  `json:"time"`
	Temp     float64       `json:"temp"`
	Phase    weather.Phase `json:"phase"`
	Offset   float64       `json:"offset"`
	Selected bool          `json:"selected"`
	Now      bool          `json:"now"`
}

// Frame is an immutable view of the core published after every change.
// Trend and Briefing are blank outside live mode.
type Frame struct {
	Generation uint64          `json:"generation"`
	Effects    Effects         `json:"effects"`
	Displayed  *DisplayedPoint `json:"displayed,omitempty"`
	State      NavigationState `json:"state"`
	Trend      string          `json:"trend,omitempty"`
	Briefing   string          `json:"briefing,omitempty"`
	Strip      []StripItem     `json:"strip,omitempty"`
	Scrolling  bool            `json:"scrolling"`
	Loading    bool            `json:"loading"`
	Notice     string          `json:"notice,omitempty"`
}

// IsLive is shorthand for f.State.IsLive.
func (f Frame) IsLive() bool {
	return f.State.IsLive
}

// CanReturnToNow reports whether the "return to now" control should show.
func (f Frame) CanReturnToNow() bool {
	return !f.State.IsLive && len(f.Strip) > 0
}
