package weather

import (
	"github.com/i474232898/weatherai/internal/common"
)

// Condition represents a normalized high-level weather condition reported by
// external providers.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Description renders the condition as an observation description.
func (c Condition) Description() string {
	switch c {
	case ConditionCloudy:
		return "Cloudy"
	case ConditionRain:
		return "Rain"
	case ConditionSnow:
		return "Snow"
	case ConditionStorm:
		return "Thunderstorm"
	case ConditionMist:
		return "Mist"
	default:
		return "Clear"
	}
}

// ConditionFromText classifies free provider text.
func ConditionFromText(text string) Condition {
	switch {
	case text == "":
		return ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return ConditionStorm
	case common.HasAny(text, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard"):
		return ConditionSnow
	case common.HasAny(text, "mist", "fog", "haze"):
		return ConditionMist
	case common.HasAny(text, "cloud", "overcast"):
		return ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

// ConditionFromWMO maps a WMO weather interpretation code (Open-Meteo).
func ConditionFromWMO(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// DescribeTemperature is the canonical temperature to description mapping.
func DescribeTemperature(t float64) string {
	switch {
	case t < 5:
		return "Cold"
	case t < 15:
		return "Cool"
	case t < 25:
		return "Mild"
	default:
		return "Warm"
	}
}

// IconFor maps a description to an icon code. Unknown text gets the clear-sky icon.
func IconFor(description string) string {
	switch {
	case common.HasAny(description, "clear", "sunny"):
		return "01d"
	case common.HasAny(description, "partly cloudy"):
		return "02d"
	case common.HasAny(description, "cloudy", "cloud", "overcast"):
		return "04d"
	case common.HasAny(description, "rain"):
		return "10d"
	case common.HasAny(description, "thunder"):
		return "11d"
	case common.HasAny(description, "snow"):
		return "13d"
	case common.HasAny(description, "mist", "fog"):
		return "50d"
	default:
		return "01d"
	}
}
