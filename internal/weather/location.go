package weather

import (
	"regexp"
	"strings"
)

var (
	prepositionPattern = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+`)
	// timePattern matches a trailing time qualifier such as "for tomorrow".
	timePattern = regexp.MustCompile(`(?i)\s+(?:(?:for|at|in)\s+)?(?:right now|now|today|tonight|tomorrow|this (?:morning|afternoon|evening|week))$`)
)

// leadingPhrases are stripped from bare queries such as "weather Paris".
var leadingPhrases = []string{
	"what's the weather",
	"what is the weather",
	"how's the weather",
	"how is the weather",
	"weather",
	"forecast",
}

// ExtractLocation pulls a city name out of a free-text chat message, e.g.
// "What's the weather in Paris?" -> "Paris". A bare city name is returned as is.
func ExtractLocation(message string) string {
	text := strings.TrimSpace(message)
	text = strings.TrimRight(text, "?!. ")

	for {
		trimmed := timePattern.ReplaceAllString(text, "")
		if trimmed == text {
			break
		}
		text = trimmed
	}

	// The last preposition wins: "weather for tomorrow in Paris" -> "Paris".
	if m := prepositionPattern.FindAllStringIndex(text, -1); m != nil {
		text = text[m[len(m)-1][1]:]
	} else {
		text = stripLeadingPhrase(text)
	}

	return strings.TrimSpace(strings.Trim(text, "?!.,:; "))
}

// stripLeadingPhrase removes a leading phrase only when it is a whole word,
// so "Weatherford" stays intact.
func stripLeadingPhrase(text string) string {
	lower := strings.ToLower(text)
	for _, p := range leadingPhrases {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		rest := text[len(p):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return rest
		}
	}
	return text
}
