package timeline

const (
	// ReferenceIndex is the timeline index drawn at angle 0 (noon-aligned).
	ReferenceIndex = 36
	// DegreesPerIndex is how far the celestial indicator turns per hour.
	DegreesPerIndex = 15.0
)

// RotationAngle returns the orbit angle in degrees for the indicator. It is
// linear in the index and never wrapped; renderers apply the cyclic transform.
func RotationAngle(selectedIndex int, isLive bool, nowIndex int) float64 {
	used := selectedIndex
	if isLive {
		used = nowIndex
		if nowIndex < 0 {
			used = ReferenceIndex
		}
	}
	return float64(used-ReferenceIndex) * DegreesPerIndex
}
