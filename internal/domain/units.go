package domain

import "math"

// heatIndexCoefficients are the NOAA Rothfusz regression coefficients c0..c8.
var heatIndexCoefficients = [9]float64{
	-42.379,
	2.04901523,
	10.14333127,
	-0.22475541,
	-0.00683783,
	-0.05481717,
	0.00122874,
	0.00085282,
	-0.00000199,
}

// roundHalfUp rounds to the nearest integer with ties toward +Inf.
// math.Round ties away from zero, which differs for negative halves.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func roundTo2(x float64) float64 {
	return roundHalfUp(x*100) / 100
}

// PressureInHgToPa converts inches of mercury to whole pascals.
func PressureInHgToPa(inHg float64) float64 {
	return roundHalfUp(inHg * 3386)
}

// TemperatureFToK converts Fahrenheit to whole kelvin.
func TemperatureFToK(f float64) float64 {
	return roundHalfUp((f-32)*5/9 + 273.15)
}

// AngleDegToRad converts degrees to radians at two decimals using the
// constant 0.01745, not π/180, so 180° is 3.14.
func AngleDegToRad(deg float64) float64 {
	return roundTo2(deg * 0.01745)
}

// SpeedMphToMps converts miles per hour to metres per second at two decimals.
func SpeedMphToMps(mph float64) float64 {
	return roundTo2(mph * 0.44704)
}

// LengthInToMm converts inches to millimetres at two decimals.
func LengthInToMm(in float64) float64 {
	return roundTo2(in * 25.4)
}

// HumidityPercentToRatio converts relative humidity in percent to 0-1.
func HumidityPercentToRatio(percent float64) float64 {
	return percent / 100
}

// HeatIndexF evaluates the NOAA heat index polynomial for temperature t in °F
// and relative humidity h in percent. The result is in °F and unrounded.
func HeatIndexF(t, h float64) float64 {
	c := heatIndexCoefficients
	return c[0] +
		c[1]*t +
		c[2]*h +
		c[3]*t*h +
		c[4]*t*t +
		c[5]*h*h +
		c[6]*t*t*h +
		c[7]*t*h*h +
		c[8]*t*t*h*h
}
