package mux

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testPins() ([]gpio.PinOut, []*gpiotest.Pin, *gpiotest.Pin) {
	raw := make([]*gpiotest.Pin, 4)
	outs := make([]gpio.PinOut, 4)
	for i := range raw {
		raw[i] = &gpiotest.Pin{N: fmt.Sprintf("S%d", i), Num: i}
		outs[i] = raw[i]
	}
	enable := &gpiotest.Pin{N: "EN", Num: 4}
	return outs, raw, enable
}

func TestNewLeavesDisabled(t *testing.T) {
	outs, _, enable := testPins()
	_, err := New("MUX1", outs, enable, 0)
	require.NoError(t, err)
	require.Equal(t, gpio.High, enable.L)
}

func TestNewRejectsWrongPinCount(t *testing.T) {
	outs, _, enable := testPins()
	_, err := New("MUX1", outs[:3], enable, 0)
	require.Error(t, err)
}

func TestSelectDrivesLines(t *testing.T) {
	outs, raw, enable := testPins()
	m, err := New("MUX1", outs, enable, 0)
	require.NoError(t, err)

	// 5 = 0101, most significant bit on the first select line
	require.NoError(t, m.Select(5))
	require.Equal(t, gpio.Low, enable.L)
	require.Equal(t, gpio.Low, raw[0].L)
	require.Equal(t, gpio.High, raw[1].L)
	require.Equal(t, gpio.Low, raw[2].L)
	require.Equal(t, gpio.High, raw[3].L)

	// 13 = 1101
	require.NoError(t, m.Select(13))
	require.Equal(t, gpio.High, raw[0].L)
	require.Equal(t, gpio.High, raw[1].L)
	require.Equal(t, gpio.Low, raw[2].L)
	require.Equal(t, gpio.High, raw[3].L)
}

func TestSelectRejectsOutOfRange(t *testing.T) {
	outs, _, enable := testPins()
	m, err := New("MUX1", outs, enable, 0)
	require.NoError(t, err)

	require.ErrorIs(t, m.Select(-1), ErrChannelRange)
	require.ErrorIs(t, m.Select(NumChannels), ErrChannelRange)
}

func TestDisable(t *testing.T) {
	outs, _, enable := testPins()
	m, err := New("MUX1", outs, enable, 0)
	require.NoError(t, err)

	require.NoError(t, m.Select(0))
	require.Equal(t, gpio.Low, enable.L)
	require.NoError(t, m.Disable())
	require.Equal(t, gpio.High, enable.L)
}
