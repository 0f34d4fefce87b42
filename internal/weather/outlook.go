package weather

import (
	"math"
	"strconv"
	"strings"
)

// MaxForecastDays is the number of days requested from and kept for the provider.
const MaxForecastDays = 3

// Outlook is the fully-defaulted view of a RawPayload. Mapping and advisory
// rules only ever see this record.
type Outlook struct {
	Location string
	Current  Observation
	Days     []DayOutlook
}

// Observation holds current conditions. Humidity defaults to 0 like the
// other scalar readings; UV and PrecipMm stay nil when not reported.
type Observation struct {
	TempC     float64
	Humidity  float64
	WindKph   float64
	UV        *float64
	PrecipMm  *float64
	Condition string
	Icon      string
}

type DayOutlook struct {
	AvgTempC     *float64
	MinTempC     *float64
	MaxTempC     *float64
	ChanceOfRain float64
	Condition    string
	Icon         string
}

// Outlook resolves the payload once, applying every fallback. query is used
// as the location label when the provider does not name the place.
func (p RawPayload) Outlook(query string) Outlook {
	o := Outlook{Location: resolveLocation(p.Location, query)}

	if c := p.Current; c != nil {
		o.Current = Observation{
			TempC:    c.TempC.Value,
			Humidity: c.Humidity.Value,
			WindKph:  c.WindKph.Value,
			UV:       c.UV.Ptr(),
			PrecipMm: c.PrecipMm.Ptr(),
		}
		o.Current.Condition, o.Current.Icon = c.Condition.resolve()
	}

	if p.Forecast == nil {
		return o
	}
	days := p.Forecast.ForecastDay
	if len(days) > MaxForecastDays {
		days = days[:MaxForecastDays]
	}
	o.Days = make([]DayOutlook, 0, len(days))
	for _, d := range days {
		var day DayOutlook
		if d.Day != nil {
			day.AvgTempC = d.Day.AvgTempC.Ptr()
			day.MinTempC = d.Day.MinTempC.Ptr()
			day.MaxTempC = d.Day.MaxTempC.Ptr()
			day.ChanceOfRain = d.Day.DailyChanceOfRain.Value
			day.Condition, day.Icon = d.Day.Condition.resolve()
		}
		o.Days = append(o.Days, day)
	}
	return o
}

func resolveLocation(l *RawLocation, query string) string {
	if l == nil {
		return strings.TrimSpace(query)
	}
	name := strings.TrimSpace(deref(l.Name))
	if name == "" {
		return strings.TrimSpace(query)
	}
	area := strings.TrimSpace(deref(l.Region))
	if area == "" {
		area = strings.TrimSpace(deref(l.Country))
	}
	if area == "" {
		return name
	}
	return name + ", " + area
}

// resolve returns condition text and icon, preferring the object form.
func (c *RawCondition) resolve() (text, icon string) {
	if c == nil {
		return "", ""
	}
	text = deref(c.Text)
	if text == "" {
		text = deref(c.Value)
	}
	return text, AbsoluteIconURL(deref(c.Icon))
}

// Normalize maps the outlook to the response shape and attaches advisory tips.
func (o Outlook) Normalize() NormalizedForecast {
	return o.NormalizeWith(DefaultRules())
}

// NormalizeWith is Normalize with a caller-supplied rule list.
func (o Outlook) NormalizeWith(rules []AdvisoryRule) NormalizedForecast {
	out := NormalizedForecast{
		Location: o.Location,
		Current: Current{
			Temperature: round(o.Current.TempC),
			Humidity:    round(o.Current.Humidity),
			WindSpeed:   round(o.Current.WindKph),
			Condition:   o.Current.Condition,
			Icon:        o.Current.Icon,
			UV:          o.Current.UV,
			PrecipMm:    o.Current.PrecipMm,
		},
		Forecast:         make([]DayForecast, 0, len(o.Days)),
		TemperatureRange: o.temperatureRange(),
		Tips:             ApplyRules(o, rules),
	}

	for i, d := range o.Days {
		var temp float64
		switch {
		case d.AvgTempC != nil:
			temp = *d.AvgTempC
		case d.MaxTempC != nil:
			temp = *d.MaxTempC
		}
		out.Forecast = append(out.Forecast, DayForecast{
			Day:         DayLabel(i),
			Temperature: round(temp),
			Condition:   d.Condition,
			Icon:        d.Icon,
		})
	}
	return out
}

func (o Outlook) temperatureRange() TemperatureRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range o.Days {
		if d.MinTempC != nil && *d.MinTempC < lo {
			lo = *d.MinTempC
		}
		if d.MaxTempC != nil && *d.MaxTempC > hi {
			hi = *d.MaxTempC
		}
	}
	var r TemperatureRange
	if !math.IsInf(lo, 0) {
		r.Min = round(lo)
	}
	if !math.IsInf(hi, 0) {
		r.Max = round(hi)
	}
	return r
}

// AbsoluteIconURL turns provider icon paths into https URLs. Applying it to
// its own output is a no-op.
func AbsoluteIconURL(icon string) string {
	switch {
	case icon == "":
		return ""
	case strings.HasPrefix(icon, "//"):
		return "https:" + icon
	case strings.HasPrefix(icon, "http"):
		return icon
	default:
		return "https://" + icon
	}
}

// DayLabel names a forecast day by its offset from today.
func DayLabel(index int) string {
	switch index {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return "Day " + strconv.Itoa(index+1)
	}
}

// round rounds half up, so -2.5 becomes -2. Results are clamped to the
// int32 range.
func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Floor(v + 0.5)
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
