package weather

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category represents the display class of a weather condition.
type Category string

const (
	CategoryThunderstorm Category = "thunderstorm"
	CategorySnowy        Category = "snowy"
	CategoryRainy        Category = "rainy"
	CategoryCloudy       Category = "cloudy"
	CategoryPartlyCloudy Category = "partly_cloudy"
	CategorySunny        Category = "sunny"
	CategoryNeutral      Category = "neutral"
)

// TimeOfDay is the coarse day/night label carried on a snapshot.
type TimeOfDay string

const (
	TimeOfDayDay   TimeOfDay = "DAY"
	TimeOfDayNight TimeOfDay = "NIGHT"
)

// Location represents a logical place for which we track weather.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return strings.ToLower(strings.TrimSpace(l.City)) + ":" + strings.ToLower(strings.TrimSpace(l.Country))
}

// Place is a geocoded location.
type Place struct {
	Name     string  `json:"name"`
	Country  string  `json:"country,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone,omitempty"`
}

// hourLayout is the wall-clock format used by hourly series, e.g. 2024-10-27T10:00.
const hourLayout = "2006-01-02T15:04"

// Hour is a timestamp at hour resolution. It marshals as local wall-clock
// time without zone, the same way hourly series arrive from upstream.
type Hour struct {
	time.Time
}

// NewHour truncates t to the hour of its own wall clock.
func NewHour(t time.Time) Hour {
	return Hour{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())}
}

func (h Hour) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Format(hourLayout))
}

func (h *Hour) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseHour(s, time.UTC)
	if err != nil {
		return err
	}
	h.Time = t
	return nil
}

// ParseHour accepts RFC3339 or the zone-less hourly layout, interpreting the
// latter in loc.
func ParseHour(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{hourLayout, "2006-01-02 15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid hour %q", s)
}

// TimelinePoint is one hourly observation or forecast sample.
type TimelinePoint struct {
	Time        Hour    `json:"time"`
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"` // km/h
	Condition   string  `json:"condition"`
	IsDay       bool    `json:"is_day"`
	WeatherCode int     `json:"weather_code"`
}

// CurrentSnapshot is the live observation for a city.
type CurrentSnapshot struct {
	City      string    `json:"city"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	TimelinePoint
}

// IsNight reports whether the snapshot is a night observation.
func (s CurrentSnapshot) IsNight() bool {
	if s.TimeOfDay != "" {
		return s.TimeOfDay == TimeOfDayNight
	}
	return !s.IsDay
}

// Report is the answer to a chat query: the live snapshot plus the ordered
// hourly timeline around it. TimelineData is strictly ascending by Time.
type Report struct {
	ID              string          `json:"id"`
	City            string          `json:"city"`
	Timezone        string          `json:"timezone,omitempty"`
	CurrentIndex    int             `json:"current_index"`
	Trend           string          `json:"trend"`
	CurrentSnapshot CurrentSnapshot `json:"current_snapshot"`
	TimelineData    []TimelinePoint `json:"timeline_data"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// BriefingInput is the subset of a report a narrator summarises.
type BriefingInput struct {
	City            string           `json:"city"`
	CurrentSnapshot *CurrentSnapshot `json:"current_snapshot,omitempty"`
	Trend           string           `json:"trend,omitempty"`
}

// Briefing returns the narrator input for r.
func (r Report) Briefing() BriefingInput {
	snap := r.CurrentSnapshot
	return BriefingInput{
		City:            r.City,
		CurrentSnapshot: &snap,
		Trend:           r.Trend,
	}
}

// Span is the period a report covers: its first and last timeline hours, or
// the generation time when it carries no timeline.
func (r Report) Span() (time.Time, time.Time) {
	if n := len(r.TimelineData); n > 0 {
		return r.TimelineData[0].Time.Time, r.TimelineData[n-1].Time.Time
	}
	return r.GeneratedAt, r.GeneratedAt
}
