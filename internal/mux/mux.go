// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mux

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// NumChannels is the channel range of the 16:1 analog multiplexer.
const NumChannels = 16

// ErrChannelRange is returned by Select for a channel outside 0..15.
var ErrChannelRange = errors.New("mux: channel out of range")

// Multiplexer routes the shared I2C bus to one physical sensor at a time.
// Four select lines encode the channel (most significant bit first) and the
// enable line is active low. Only one channel is addressable at a time; a
// previously selected channel must not be assumed reachable after Select
// returns for a new one.
type Multiplexer struct {
	name       string
	selectPins []gpio.PinOut
	enable     gpio.PinOut
	settle     time.Duration
}

// New configures the control lines and leaves the multiplexer disabled until
// the first Select.
func New(name string, selectPins []gpio.PinOut, enable gpio.PinOut, settle time.Duration) (*Multiplexer, error) {
	if len(selectPins) != 4 {
		return nil, fmt.Errorf("mux %s: need 4 select pins, got %d", name, len(selectPins))
	}
	if enable == nil {
		return nil, fmt.Errorf("mux %s: enable pin is required", name)
	}
	m := &Multiplexer{name: name, selectPins: selectPins, enable: enable, settle: settle}
	if err := m.Disable(); err != nil {
		return nil, fmt.Errorf("mux %s: disable at init: %w", name, err)
	}
	return m, nil
}

// Select enables the multiplexer, drives the select lines for the requested
// channel and waits the settling delay before returning.
func (m *Multiplexer) Select(channel int) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("%w: %d", ErrChannelRange, channel)
	}
	if err := m.Enable(); err != nil {
		return fmt.Errorf("mux %s: enable: %w", m.name, err)
	}
	for i, pin := range m.selectPins {
		bit := channel >> (len(m.selectPins) - 1 - i) & 1
		if err := pin.Out(gpio.Level(bit == 1)); err != nil {
			return fmt.Errorf("mux %s: select line %s: %w", m.name, pin.Name(), err)
		}
	}
	time.Sleep(m.settle)
	return nil
}

// Enable pulls the enable line low.
func (m *Multiplexer) Enable() error {
	return m.enable.Out(gpio.Low)
}

// Disable pulls the enable line high, disconnecting all channels.
func (m *Multiplexer) Disable() error {
	return m.enable.Out(gpio.High)
}
