package weather

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// TemplateNarrator builds a caption from fixed phrases. It is used when no
// language model is configured.
type TemplateNarrator struct{}

var categoryPhrases = map[Category]string{
	CategoryThunderstorm: "storms are rolling through, so stay indoors if you can",
	CategorySnowy:        "snow is falling, so wrap up warm",
	CategoryRainy:        "grab an umbrella before heading out",
	CategoryCloudy:       "grey skies overhead, but nothing dramatic",
	CategorySunny:        "clear skies make it a good time to be outside",
	CategoryNeutral:      "a quiet spell of weather",
}

// Narrate implements Narrator.
func (TemplateNarrator) Narrate(_ context.Context, in BriefingInput) (string, error) {
	if in.CurrentSnapshot == nil {
		return "", fmt.Errorf("no current snapshot to narrate")
	}
	snap := in.CurrentSnapshot
	class := Classify(snap.Condition, snap.IsNight())

	phrase := categoryPhrases[class.Category]
	if class.Category == CategorySunny && class.IsNight {
		phrase = "a clear night, perfect for stargazing"
	}

	city := in.City
	if city == "" {
		city = snap.City
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d°C: %s", city, int(math.Round(snap.Temp)), phrase)
	if in.Trend != "" && in.Trend != trendNoHistory {
		fmt.Fprintf(&b, " (%s)", strings.ToLower(in.Trend))
	}
	b.WriteString(".")
	return b.String(), nil
}
