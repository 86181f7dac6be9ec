package weather

// ConditionText maps a WMO weather interpretation code to the text shown on
// the dashboard and fed to Classify.
func ConditionText(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code >= 1 && code <= 3:
		return "Mainly clear, partly cloudy, and overcast"
	case code >= 45 && code <= 48:
		return "Fog and depositing rime fog"
	case code >= 51 && code <= 57:
		return "Drizzle: Light, moderate, and dense intensity"
	case code >= 61 && code <= 67:
		return "Rain: Slight, moderate and heavy intensity"
	case code >= 71 && code <= 77:
		return "Snow fall: Slight, moderate, and heavy intensity"
	case code >= 80 && code <= 82:
		return "Rain showers: Slight, moderate, and violent"
	case code >= 85 && code <= 86:
		return "Snow showers slight and heavy"
	case code >= 95 && code <= 99:
		return "Thunderstorm: Slight or moderate"
	default:
		return "Unknown"
	}
}
