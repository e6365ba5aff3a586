package cycle

const (
	FlowHeavy    = "Heavy"
	FlowMedium   = "Medium"
	FlowLight    = "Light"
	FlowSpotting = "Spotting"
)

// FlowDay is a synthetic chart point; it carries no physiological meaning.
type FlowDay struct {
	Day       int    `json:"day"`
	Intensity int    `json:"intensity"`
	Band      string `json:"band"`
}

// FlowIntensity shapes a period of length days as a curve peaking mid-period.
func FlowIntensity(length int) []FlowDay {
	if length <= 0 {
		return []FlowDay{}
	}
	days := make([]FlowDay, 0, length)
	for day := 1; day <= length; day++ {
		intensity := 5 + 2*day
		if day > length/2 {
			intensity = 5 + 2*(length-day+1)
		}
		days = append(days, FlowDay{Day: day, Intensity: intensity, Band: FlowBand(intensity)})
	}
	return days
}

func FlowBand(intensity int) string {
	switch {
	case intensity > 12:
		return FlowHeavy
	case intensity > 8:
		return FlowMedium
	case intensity > 4:
		return FlowLight
	case intensity > 0:
		return FlowSpotting
	default:
		return ""
	}
}
