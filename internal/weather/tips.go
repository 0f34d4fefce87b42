package weather

import "strings"

// Advisory messages. Tests and clients match on these verbatim.
const (
	TipHighUV      = "High UV index today: shade seedlings and young transplants during midday hours."
	TipLowHumidity = "Low humidity: irrigate in the early morning and mulch beds to keep soil moisture."
	TipStrongWind  = "Strong winds expected: secure greenhouse covers, row covers and loose equipment."
	TipRainLikely  = "Rain is likely in the next few days: postpone fertilizer application and check field drainage."
	TipHeat        = "High temperatures ahead: water crops early in the morning or late in the evening."
	TipStable      = "Weather conditions look stable. Continue your regular farm activities."
)

// Thresholds used by DefaultRules.
const (
	HighUVIndex      = 8.0
	LowHumidityPct   = 40.0
	StrongWindKph    = 40.0
	LikelyRainPct    = 60.0
	HeatWarningTempC = 35.0
)

// AdvisoryRule emits Message when Applies holds for the outlook.
type AdvisoryRule struct {
	Name    string
	Applies func(Outlook) bool
	Message string
}

// DefaultRules returns a fresh copy of the built-in rules. They are evaluated
// in order: current conditions first, then forecast-derived rules.
func DefaultRules() []AdvisoryRule {
	return []AdvisoryRule{
		{
			Name: "high-uv",
			Applies: func(o Outlook) bool {
				return o.Current.UV != nil && *o.Current.UV >= HighUVIndex
			},
			Message: TipHighUV,
		},
		{
			Name: "low-humidity",
			Applies: func(o Outlook) bool {
				return o.Current.Humidity <= LowHumidityPct
			},
			Message: TipLowHumidity,
		},
		{
			Name: "strong-wind",
			Applies: func(o Outlook) bool {
				return o.Current.WindKph >= StrongWindKph
			},
			Message: TipStrongWind,
		},
		{
			Name: "rain-likely",
			Applies: func(o Outlook) bool {
				for _, d := range o.Days {
					if d.ChanceOfRain >= LikelyRainPct {
						return true
					}
				}
				return false
			},
			Message: TipRainLikely,
		},
		{
			Name: "heat",
			Applies: func(o Outlook) bool {
				for _, d := range o.Days {
					if d.MaxTempC != nil && *d.MaxTempC >= HeatWarningTempC {
						return true
					}
				}
				return false
			},
			Message: TipHeat,
		},
	}
}

// GenerateTips applies DefaultRules to the outlook.
func GenerateTips(o Outlook) string {
	return ApplyRules(o, DefaultRules())
}

// ApplyRules joins the messages of every rule that fires, in rule order.
// It falls back to TipStable so the result is never empty.
func ApplyRules(o Outlook, rules []AdvisoryRule) string {
	var fired []string
	for _, r := range rules {
		if r.Applies != nil && r.Applies(o) {
			fired = append(fired, r.Message)
		}
	}
	if len(fired) == 0 {
		return TipStable
	}
	return strings.Join(fired, " ")
}
