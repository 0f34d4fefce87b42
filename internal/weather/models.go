package weather

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawPayload is the forecast.json body as returned by the provider.
// Every field is optional; nothing downstream reads it directly, it is
// first resolved into an Outlook.
type RawPayload struct {
	Location *RawLocation `json:"location"`
	Current  *RawCurrent  `json:"current"`
	Forecast *RawForecast `json:"forecast"`
}

type RawLocation struct {
	Name    *string `json:"name"`
	Region  *string `json:"region"`
	Country *string `json:"country"`
}

type RawCurrent struct {
	TempC     FlexFloat     `json:"temp_c"`
	Humidity  FlexFloat     `json:"humidity"`
	WindKph   FlexFloat     `json:"wind_kph"`
	UV        FlexFloat     `json:"uv"`
	PrecipMm  FlexFloat     `json:"precip_mm"`
	Condition *RawCondition `json:"condition"`
}

type RawForecast struct {
	ForecastDay []RawForecastDay `json:"forecastday"`
}

type RawForecastDay struct {
	Date *string `json:"date"`
	Day  *RawDay `json:"day"`
}

type RawDay struct {
	MaxTempC          FlexFloat     `json:"maxtemp_c"`
	MinTempC          FlexFloat     `json:"mintemp_c"`
	AvgTempC          FlexFloat     `json:"avgtemp_c"`
	DailyChanceOfRain FlexFloat     `json:"daily_chance_of_rain"`
	Condition         *RawCondition `json:"condition"`
}

// RawCondition accepts either {"text": "...", "icon": "..."} or a bare string.
type RawCondition struct {
	Text *string `json:"text"`
	Icon *string `json:"icon"`

	// Value holds the condition when the provider sent a plain string.
	Value *string `json:"-"`
}

func (c *RawCondition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		c.Value = &s
		return nil
	case data[0] == '{':
		var obj struct {
			Text *string `json:"text"`
			Icon *string `json:"icon"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		c.Text, c.Icon = obj.Text, obj.Icon
		return nil
	default:
		return nil
	}
}

// FlexFloat is an optional number. It accepts finite JSON numbers and
// numeric strings; null, NaN, infinities and anything else leave it unset.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

// Ptr returns nil when the value is absent.
func (f FlexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// NormalizedForecast is the canonical response for a single location.
type NormalizedForecast struct {
	Location         string           `json:"location"`
	Current          Current          `json:"current"`
	Forecast         []DayForecast    `json:"forecast"`
	TemperatureRange TemperatureRange `json:"temperatureRange"`
	Tips             string           `json:"tips"`
}

type Current struct {
	Temperature int      `json:"temperature"`
	Humidity    int      `json:"humidity"`
	WindSpeed   int      `json:"windSpeed"`
	Condition   string   `json:"condition"`
	Icon        string   `json:"icon"`
	UV          *float64 `json:"uv"`
	PrecipMm    *float64 `json:"precip_mm"`
}

type DayForecast struct {
	Day         string `json:"day"`
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
}

type TemperatureRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
