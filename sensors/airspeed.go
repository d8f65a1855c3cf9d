// Package sensors provides the airspeedd interface to the supported
// differential pressure sensors.
package sensors

import (
	"time"

	"github.com/openflightbox/airspeedd/sensors/airdata"
)

// AirspeedSource is a running differential pressure sensor.
type AirspeedSource interface {
	Readings() <-chan airdata.Reading // Readings returns the decoded measurement stream.
	SensorOK() bool                   // SensorOK reports whether the last trigger succeeded.
	ErrorCount() uint64               // ErrorCount returns the communication errors seen so far.
	Close()                           // Close stops the acquisition loop.
}

// cycleDriver is the part of a sensor driver the acquisition loop needs.
type cycleDriver interface {
	RunCycle() airdata.Schedule
	SensorOK() bool
	ErrorCount() uint64
}

// reader runs a driver's cycle on its own goroutine, honoring the
// driver's scheduling requests. Cycles never overlap: one goroutine per
// sensor is the whole concurrency story.
type reader struct {
	driver   cycleDriver
	readings chan airdata.Reading
	quit     chan struct{}
}

func newReader() *reader {
	return &reader{
		readings: make(chan airdata.Reading, 32),
		quit:     make(chan struct{}),
	}
}

// publish hands a reading to the channel without ever blocking the
// acquisition cycle. A slow consumer loses readings.
func (r *reader) publish(reading airdata.Reading) {
	select {
	case r.readings <- reading:
	default:
	}
}

func (r *reader) run() {
	timer := time.NewTimer(0)
	for {
		select {
		case <-r.quit:
			timer.Stop()
			close(r.readings)
			return
		case <-timer.C:
			sched := r.driver.RunCycle()
			timer.Reset(sched.Delay)
		}
	}
}

// Readings returns the decoded measurement stream.
func (r *reader) Readings() <-chan airdata.Reading { return r.readings }

// SensorOK reports whether the last trigger succeeded.
func (r *reader) SensorOK() bool { return r.driver.SensorOK() }

// ErrorCount returns the communication errors seen so far.
func (r *reader) ErrorCount() uint64 { return r.driver.ErrorCount() }

// Close stops the acquisition loop and closes the readings channel.
func (r *reader) Close() { close(r.quit) }
