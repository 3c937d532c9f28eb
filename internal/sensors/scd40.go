// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/sensormux/airlogger/internal/reading"
)

// SCD40 command set and address, per the Sensirion SCD4x datasheet.
const (
	scd40Addr = 0x62
)

var (
	cmdStartPeriodic   = []byte{0x21, 0xb1}
	cmdDataReadyStatus = []byte{0xe4, 0xb8}
	cmdReadMeasurement = []byte{0xec, 0x05}
)

var errNotReady = errors.New("scd40: measurement not ready")

// SCD40 drives the Sensirion SCD40 CO2/temperature/humidity transceiver.
// The first Read puts the sensor into periodic measurement mode and waits a
// warmup delay; later reads poll the data-ready status with a bounded number
// of retries, then fetch and CRC-check the measurement words.
type SCD40 struct {
	addr       uint16
	started    bool
	warmup     time.Duration
	retries    int
	retryDelay time.Duration
}

// NewSCD40 returns a driver with the stock address and timing.
func NewSCD40() *SCD40 {
	return &SCD40{
		addr:       scd40Addr,
		warmup:     2 * time.Second,
		retries:    3,
		retryDelay: 100 * time.Millisecond,
	}
}

func (s *SCD40) Kind() reading.SensorKind { return reading.KindClimate }

func (s *SCD40) Read(bus i2c.Bus) (reading.Sample, error) {
	dev := &i2c.Dev{Addr: s.addr, Bus: bus}

	if !s.started {
		if err := dev.Tx(cmdStartPeriodic, nil); err != nil {
			return nil, fmt.Errorf("scd40: start periodic measurement: %w", err)
		}
		s.started = true
		time.Sleep(s.warmup)
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryDelay)
		}
		ready, err := s.dataReady(dev)
		if err != nil {
			lastErr = err
			continue
		}
		if !ready {
			lastErr = errNotReady
			continue
		}
		sample, err := s.readMeasurement(dev)
		if err != nil {
			lastErr = err
			continue
		}
		return sample, nil
	}
	return nil, fmt.Errorf("scd40: no valid measurement after %d attempts: %w", s.retries, lastErr)
}

// dataReady reads the data-ready status word; the low 11 bits are non-zero
// when a measurement is available.
func (s *SCD40) dataReady(dev *i2c.Dev) (bool, error) {
	var buf [3]byte
	if err := dev.Tx(cmdDataReadyStatus, buf[:]); err != nil {
		return false, fmt.Errorf("scd40: data ready status: %w", err)
	}
	word, err := parseWord(buf[:])
	if err != nil {
		return false, err
	}
	return word&0x07ff != 0, nil
}

func (s *SCD40) readMeasurement(dev *i2c.Dev) (reading.Sample, error) {
	var buf [9]byte
	if err := dev.Tx(cmdReadMeasurement, buf[:]); err != nil {
		return nil, fmt.Errorf("scd40: read measurement: %w", err)
	}
	co2, err := parseWord(buf[0:3])
	if err != nil {
		return nil, err
	}
	tempRaw, err := parseWord(buf[3:6])
	if err != nil {
		return nil, err
	}
	rhRaw, err := parseWord(buf[6:9])
	if err != nil {
		return nil, err
	}
	return reading.ClimateSample{
		CO2PPM:       float64(co2),
		TemperatureC: -45.0 + 175.0*float64(tempRaw)/65535.0,
		HumidityRH:   100.0 * float64(rhRaw) / 65535.0,
	}, nil
}

// parseWord validates the trailing CRC of a big-endian word triplet.
func parseWord(b []byte) (uint16, error) {
	if got := crc8(b[:2]); got != b[2] {
		return 0, fmt.Errorf("scd40: CRC mismatch: computed 0x%02x, received 0x%02x", got, b[2])
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// crc8 implements the Sensirion CRC-8 (polynomial 0x31, init 0xFF).
func crc8(data []byte) byte {
	crc := byte(0xff)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
