package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/i474232898/weather-timeline/internal/timeline"
)

// stripRadius is how many hours either side of the selection are printed.
const stripRadius = 3

func render(w io.Writer, f timeline.Frame) {
	var b strings.Builder

	switch {
	case f.Loading:
		b.WriteString("Loading...\n")
	case f.Notice != "":
		fmt.Fprintf(&b, "! %s\n", f.Notice)
	}

	if d := f.Displayed; d != nil {
		mode := "LIVE"
		if !f.IsLive() {
			mode = "HISTORY " + d.Time.Format("Mon 15:04")
		}
		fmt.Fprintf(&b, "[%s] %s %.0f°C (feels %.0f°C) %s, %s | humidity %d%% wind %.0f km/h\n",
			mode, d.City, d.Temp, d.FeelsLike, d.Condition, d.TimeOfDay, d.Humidity, d.WindSpeed)
	}

	fmt.Fprintf(&b, "effects: %s night=%t rotation=%.0f°\n", f.Effects.Category, f.Effects.IsNight, f.Effects.RotationAngle)
	if f.Trend != "" {
		fmt.Fprintf(&b, "trend: %s\n", f.Trend)
	}
	if f.Briefing != "" {
		fmt.Fprintf(&b, "%q\n", f.Briefing)
	}

	if line := stripLine(f); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if f.CanReturnToNow() {
		b.WriteString("(type \"now\" to return to the live hour)\n")
	}

	fmt.Fprintln(w, b.String())
}

func stripLine(f timeline.Frame) string {
	if len(f.Strip) == 0 {
		return ""
	}

	from := max(f.State.SelectedIndex-stripRadius, 0)
	to := min(f.State.SelectedIndex+stripRadius+1, len(f.Strip))

	parts := make([]string, 0, to-from)
	for _, item := range f.Strip[from:to] {
		label := fmt.Sprintf("%d:%s %.0f° %s", item.Index, item.Time.Format("15h"), item.Temp, item.Phase)
		if item.Now {
			label += "*"
		}
		if item.Selected {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return fmt.Sprintf("strip %d-%d/%d: %s", from, to-1, len(f.Strip), strings.Join(parts, "  "))
}
