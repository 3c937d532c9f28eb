package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/sensormux/airlogger/internal/reading"
)

// Driver reads one sample from the sensor currently routed through the
// multiplexer. The bus is borrowed for the duration of the call only;
// implementations must not retain it and must leave no transaction in
// flight when they return, so the next channel can be selected immediately.
type Driver interface {
	Kind() reading.SensorKind
	Read(bus i2c.Bus) (reading.Sample, error)
}

// ForKind returns a fresh driver for the given sensor kind. Each multiplexer
// channel gets its own instance because drivers carry per-device state (the
// SCD40 measurement mode in particular).
func ForKind(kind reading.SensorKind) (Driver, error) {
	switch kind {
	case reading.KindClimate:
		return NewSCD40(), nil
	case reading.KindOxygen:
		return NewGravityO2(GravityAddrDefault), nil
	}
	return nil, fmt.Errorf("no driver for sensor kind %d", kind)
}
