// Package common holds the aviation math shared by airspeedd.
package common

import "math"

const (
	// AirDensitySeaLevel is the standard sea level air density at
	// 15°C, kg/m³.
	AirDensitySeaLevel = 1.225

	// Specific gas constant of air, J/(kg·K).
	airGasConstant = 287.1

	absoluteZeroC = -273.15
)

// CalcIAS converts a differential pressure in Pa to indicated airspeed
// in m/s. The sign is preserved so swapped pitot ports show up as a
// negative speed instead of vanishing in the square root.
func CalcIAS(diffPressPa float64) float64 {
	if diffPressPa > 0 {
		return math.Sqrt(2 * diffPressPa / AirDensitySeaLevel)
	}
	return -math.Sqrt(2 * -diffPressPa / AirDensitySeaLevel)
}

// AirDensity returns the air density in kg/m³ for the given static
// pressure in Pa and temperature in °C.
func AirDensity(staticPressPa, tempC float64) float64 {
	return staticPressPa / (airGasConstant * (tempC - absoluteZeroC))
}

// CalcTASFromCAS scales a calibrated airspeed in m/s to true airspeed
// using the ambient air density.
func CalcTASFromCAS(cas, staticPressPa, tempC float64) float64 {
	return cas * math.Sqrt(AirDensitySeaLevel/AirDensity(staticPressPa, tempC))
}
