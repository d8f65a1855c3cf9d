// Package ms4525 implements the measurement protocol of the TE/MEAS
// MS4525DO differential pressure sensor (pitot airspeed probe).
//
// The sensor runs a two-phase cycle: a trigger write starts an internal
// conversion, and a 4-byte result read collects it once the conversion
// interval has elapsed. RunCycle performs one step of that cycle and
// reports when it wants to run next; an external loop owns the actual
// waiting. See sensors.NewMS4525 for the usual wiring.
package ms4525

import (
	"errors"
	"log"
	"time"

	"github.com/openflightbox/airspeedd/sensors/airdata"
)

// I2C addresses by order code.
const (
	Address       = 0x28 // MS4525DO, order code "I"
	AddressMS4515 = 0x46 // MS4515DO
)

// The sensor samples at 100Hz maximum. A triggered conversion is not
// readable before this interval has passed.
const ConversionInterval = 10 * time.Millisecond

// Status code carried in the two MSBs of the first result byte.
const (
	statusNormal   = 0
	statusReserved = 1
	statusStale    = 2 // result already fetched since the last trigger
	statusFault    = 3
)

var (
	errReserved    = errors.New("ms4525: reserved status")
	errStale       = errors.New("ms4525: stale data")
	errFault       = errors.New("ms4525: sensor fault")
	errTempInvalid = errors.New("ms4525: temperature at full scale")
)

// State of the acquisition cycle.
type State uint8

const (
	AwaitingTrigger State = iota
	AwaitingCollect
)

// Transport moves raw bytes to and from the sensor. Write triggers a
// conversion (a single zero byte), Read fetches the 4-byte result
// register. Both are synchronous.
type Transport interface {
	Write(p []byte) error
	Read(p []byte) error
}

// Clock provides the timestamps attached to readings. It should be
// monotonic; wall-clock steps end up in the published data.
type Clock interface {
	Now() time.Time
}

// Counter is bumped once per communication error (transport failure,
// device-reported fault, impossible temperature). prometheus.Counter
// satisfies it.
type Counter interface {
	Inc()
}

// Driver owns the acquisition cycle for one sensor. It is not safe for
// concurrent use: RunCycle invocations must be serialized by the caller.
type Driver struct {
	transport   Transport
	clock       Clock
	publish     func(airdata.Reading)
	commsErrors Counter

	state           State
	sensorOK        bool
	measureInterval time.Duration

	dpRawPrev  int16
	dtRawPrev  int16
	errorCount uint64
}

type noopCounter struct{}

func (noopCounter) Inc() {}

// New returns a driver reading through the given transport. Readings go
// to publish, which must not block. measureInterval is the desired
// period between triggers; anything at or below ConversionInterval runs
// the sensor flat out at 100Hz. commsErrors may be nil.
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
			// A failed collect says nothing about whether the in-flight
			// conversion is still usable. Restart from the trigger.
			d.state = AwaitingTrigger
			d.sensorOK = false
			return airdata.Schedule{}
		}

		d.state = AwaitingTrigger

		if d.measureInterval > ConversionInterval {
			// Idle out the rest of the configured period before the
			// next trigger.
			return airdata.Schedule{Delay: d.measureInterval - ConversionInterval}
		}
	}

	// A failed trigger can be retried blindly; the sensor may recover.
	err := d.measure()
	if err != nil {
		log.Printf("ms4525: measure error: %v", err)
	}
	d.sensorOK = err == nil

	d.state = AwaitingCollect
	return airdata.Schedule{Delay: ConversionInterval}
}

// measure starts a conversion by writing the measurement request byte.
func (d *Driver) measure() error {
	if err := d.transport.Write([]byte{0x00}); err != nil {
		d.countError()
		return err
	}
	return nil
}

// collect reads the result register, decodes it and publishes the
// reading unless the frame is rejected.
func (d *Driver) collect() error {
	sampled := d.clock.Now()

	var frame [4]byte
	if err := d.transport.Read(frame[:]); err != nil {
		d.countError()
		return err
	}

	switch frame[0] >> 6 {
	case statusNormal:
		// Normal operation, good data packet.
	case statusReserved:
		return errReserved
	case statusStale:
		// Already fetched since the last trigger.
		return errStale
	case statusFault:
		d.countError()
		return errFault
	}

	dpRaw := int16(uint16(frame[0])<<8|uint16(frame[1])) & 0x3FFF
	dtRaw := int16(((uint16(frame[2])<<8 | uint16(frame[3])) & 0xFFE0) >> 5)

	// dT at full scale is almost certainly an invalid reading.
	if dtRaw == 2047 {
		d.countError()
		return errTempInvalid
	}

	// Only publish changes. Note that both raw fields have to move: a
	// pressure change with identical temperature counts stays silent.
	if dpRaw == d.dpRawPrev || dtRaw == d.dtRawPrev {
		return nil
	}
	d.dpRawPrev = dpRaw
	d.dtRawPrev = dtRaw

	temperature := (200.0*float64(dtRaw))/2047 - 50.0

	// Inversion of the transfer function on page 4 of the datasheet.
	// The result is negated so that a positive differential pressure
	// comes out when the bottom port is static and the top port dynamic.
	const (
		pMin    = -1.0 // PSI
		pMax    = 1.0
		psiToPa = 6894.757
	)
	diffPressPSI := -((float64(dpRaw)-0.1*16383)*(pMax-pMin)/(0.8*16383) + pMin)

	d.publish(airdata.Reading{
		TimestampSample: sampled,
		DiffPressurePa:  diffPressPSI * psiToPa,
		TemperatureC:    temperature,
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
