package sensors

import (
	"fmt"
	"time"

	"github.com/kidoman/embd"

	"github.com/openflightbox/airspeedd/sensors/ets"
)

// ETS reads an Eagle Tree Airspeed V3 and implements the AirspeedSource
// interface.
type ETS struct {
	*reader
}

// NewETS looks for an Eagle Tree Airspeed V3 on the I2C bus and begins
// reading it every interval. commsErrors may be nil.
func NewETS(i2cbus *embd.I2CBus, interval time.Duration, clock ets.Clock, commsErrors ets.Counter) (*ETS, error) {
	if clock == nil {
		clock = NewMonotonic()
	}

	transport := &i2cTransport{bus: i2cbus, address: ets.Address}

	if err := transport.Write([]byte{0x07}); err != nil {
		return nil, fmt.Errorf("ets: no sensor at 0x%02X: %v", ets.Address, err)
	}

	r := newReader()
	r.driver = ets.New(transport, clock, r.publish, commsErrors, interval)
	go r.run()

	return &ETS{reader: r}, nil
}
