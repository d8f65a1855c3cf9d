// Package airdata holds the types shared by the differential pressure
// drivers and their consumers.
package airdata

import "time"

// Reading is one decoded differential pressure measurement.
type Reading struct {
	TimestampSample time.Time // taken immediately before the result read
	DiffPressurePa  float64
	TemperatureC    float64 // NaN if the sensor does not report temperature
	ErrorCount      uint64  // communication errors seen so far
	Timestamp       time.Time // taken after decoding
}

// Schedule is a driver's re-invocation request: run the next cycle once
// Delay has elapsed. A zero Delay means immediately.
type Schedule struct {
	Delay time.Duration
}
