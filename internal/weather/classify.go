package weather

import (
	"strings"

	"github.com/i474232898/weather-timeline/internal/common"
)

// Classification is the display class of a condition plus its night flag.
type Classification struct {
	Category Category `json:"category"`
	IsNight  bool     `json:"isNight"`
}

// Classify maps free-text condition text to a display category. Rules are
// checked in order and the first match wins, so "thunderstorm with rain" is a
// thunderstorm. Night without a recognisable condition renders as a clear sky.
func Classify(condition string, isNight bool) Classification {
	text := strings.ToLower(condition)

	category := CategoryNeutral
	switch {
	case common.HasAny(text, "thunderstorm"):
		category = CategoryThunderstorm
	case common.HasAny(text, "snow", "blizzard"):
		category = CategorySnowy
	case common.HasAny(text, "rain", "drizzle", "shower"):
		category = CategoryRainy
	case common.HasAny(text, "fog", "cloud", "overcast"):
		category = CategoryCloudy
	case common.HasAny(text, "clear", "sunny"):
		category = CategorySunny
	case isNight:
		category = CategorySunny
	}

	return Classification{Category: category, IsNight: isNight}
}
