// Package aqi converts PM10 concentrations into EPA Air Quality Index values
// and their reporting categories.
package aqi

import "math"

// Index is an AQI value together with its EPA category
type Index struct {
	Value    int    `json:"value" msgpack:"value"`
	Category string `json:"category" msgpack:"category"`
	Color    string `json:"color" msgpack:"color"`
}

// breakpoint maps a concentration band onto an index band
type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// EPA breakpoints for 24-hour PM10 (μg/m³)
var pm10Breakpoints = []breakpoint{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 504, 301, 400},
	{505, 604, 401, 500},
}

// CalculatePM10 calculates the Air Quality Index from a PM10 concentration (μg/m³).
// Concentrations are truncated to whole μg/m³ as the EPA formula expects.
// Negative and NaN inputs yield 0; anything beyond the top band is 500.
func CalculatePM10(pm10 float64) int {
	if math.IsNaN(pm10) || pm10 < 0 {
		return 0
	}
	pm := math.Floor(pm10)

	for _, bp := range pm10Breakpoints {
		if pm <= bp.cHigh {
			// I = (I_high - I_low) / (C_high - C_low) * (C - C_low) + I_low
			aqi := ((bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow))*(pm-bp.cLow) + bp.iLow
			return int(math.Round(aqi))
		}
	}
	return 500
}

// ForPM10 returns the full Index for a PM10 concentration
func ForPM10(pm10 float64) Index {
	v := CalculatePM10(pm10)
	return Index{
		Value:    v,
		Category: GetCategory(v),
		Color:    GetCategoryColor(v),
	}
}

// GetCategory returns the AQI category name for a given AQI value
func GetCategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// GetCategoryColor returns the standard color code for an AQI value
func GetCategoryColor(aqi int) string {
	switch {
	case aqi <= 50:
		return "#00e400" // Green
	case aqi <= 100:
		return "#ffff00" // Yellow
	case aqi <= 150:
		return "#ff7e00" // Orange
	case aqi <= 200:
		return "#ff0000" // Red
	case aqi <= 300:
		return "#99004c" // Purple
	default:
		return "#7e0023" // Maroon
	}
}
