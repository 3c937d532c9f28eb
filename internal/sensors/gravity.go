package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/sensormux/airlogger/internal/reading"
)

// Gravity oxygen sensor registers, per the DFRobot SEN0322 datasheet.
const (
	// GravityAddrDefault is the factory address (ADDR pads left open).
	GravityAddrDefault = 0x73

	regOxygenData     = 0x03
	regCalibrationKey = 0x0a
)

// defaultKey applies when no calibration has been stored in sensor flash:
// 20.9% oxygen over the 120 mV reference output.
const defaultKey = 20.9 / 120.0

// GravityO2 drives the DFRobot Gravity electrochemical oxygen transceiver.
// Each read fetches the stored calibration key and the 3-byte concentration
// register and converts to a percentage. A NACK on either transfer fails the
// read; there is no retry, the next scheduler pass attempts again.
type GravityO2 struct {
	addr uint16
}

// NewGravityO2 returns a driver for the sensor at the given address.
func NewGravityO2(addr uint16) *GravityO2 {
	return &GravityO2{addr: addr}
}

func (g *GravityO2) Kind() reading.SensorKind { return reading.KindOxygen }

func (g *GravityO2) Read(bus i2c.Bus) (reading.Sample, error) {
	dev := &i2c.Dev{Addr: g.addr, Bus: bus}

	var keyBuf [1]byte
	if err := dev.Tx([]byte{regCalibrationKey}, keyBuf[:]); err != nil {
		return nil, fmt.Errorf("gravity o2: read calibration key: %w", err)
	}
	key := defaultKey
	if keyBuf[0] != 0 {
		key = float64(keyBuf[0]) / 1000.0
	}

	var raw [3]byte
	if err := dev.Tx([]byte{regOxygenData}, raw[:]); err != nil {
		return nil, fmt.Errorf("gravity o2: read oxygen data: %w", err)
	}
	pct := key * (float64(raw[0]) + float64(raw[1])/10.0 + float64(raw[2])/100.0)
	return reading.OxygenSample{Percent: pct}, nil
}
