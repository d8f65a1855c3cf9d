package sensors

import (
	"errors"

	"github.com/kidoman/embd"
)

var errShortRead = errors.New("sensors: short read from device")

// i2cTransport adapts an embd I2C bus to the raw Write/Read transport
// the drivers consume. The airspeed sensors have no register map; a
// bare write triggers a conversion and a bare read fetches the result.
type i2cTransport struct {
	bus     *embd.I2CBus
	address byte
}

func (t *i2cTransport) Write(p []byte) error {
	return (*t.bus).WriteBytes(t.address, p)
}

func (t *i2cTransport) Read(p []byte) error {
	data, err := (*t.bus).ReadBytes(t.address, len(p))
	if err != nil {
		return err
	}
	if len(data) < len(p) {
		return errShortRead
	}
	copy(p, data)
	return nil
}
