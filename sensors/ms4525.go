package sensors

import (
	"fmt"
	"time"

	"github.com/kidoman/embd"

	"github.com/openflightbox/airspeedd/sensors/ms4525"
)

// MS4525 reads a TE/MEAS MS4525DO pitot probe and implements the
// AirspeedSource interface.
type MS4525 struct {
	*reader
}

// NewMS4525 looks for an MS4525DO on the I2C bus at the given address
// (0 selects the standard order code "I" address) and begins reading it
// every interval. commsErrors may be nil.
func NewMS4525(i2cbus *embd.I2CBus, address byte, interval time.Duration, clock ms4525.Clock, commsErrors ms4525.Counter) (*MS4525, error) {
	if address == 0 {
		address = ms4525.Address
	}
	if clock == nil {
		clock = NewMonotonic()
	}

	transport := &i2cTransport{bus: i2cbus, address: address}

	// Probe first. A bare trigger write fails if nothing ACKs the address.
	if err := transport.Write([]byte{0x00}); err != nil {
		return nil, fmt.Errorf("ms4525: no sensor at 0x%02X: %v", address, err)
	}

	r := newReader()
	r.driver = ms4525.New(transport, clock, r.publish, commsErrors, interval)
	go r.run()

	return &MS4525{reader: r}, nil
}
