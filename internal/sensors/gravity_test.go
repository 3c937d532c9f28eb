package sensors

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/sensormux/airlogger/internal/reading"
)

func TestGravityReadDefaultKey(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: GravityAddrDefault, W: []byte{regCalibrationKey}, R: []byte{0x00}},
			{Addr: GravityAddrDefault, W: []byte{regOxygenData}, R: []byte{20, 9, 0}},
		},
		DontPanic: true,
	}
	g := NewGravityO2(GravityAddrDefault)
	sample, err := g.Read(pb)
	require.NoError(t, err)

	o2, ok := sample.(reading.OxygenSample)
	require.True(t, ok)
	require.InDelta(t, (20.9/120.0)*20.9, o2.Percent, 0.0001)
}

func TestGravityReadStoredKey(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: GravityAddrDefault, W: []byte{regCalibrationKey}, R: []byte{209}},
			{Addr: GravityAddrDefault, W: []byte{regOxygenData}, R: []byte{20, 9, 5}},
		},
		DontPanic: true,
	}
	g := NewGravityO2(GravityAddrDefault)
	sample, err := g.Read(pb)
	require.NoError(t, err)
	require.InDelta(t, 0.209*(20.0+0.9+0.05), sample.(reading.OxygenSample).Percent, 0.0001)
}

func TestGravityBusFault(t *testing.T) {
	// no queued transfers: every Tx NACKs
	pb := &i2ctest.Playback{DontPanic: true}
	g := NewGravityO2(GravityAddrDefault)
	_, err := g.Read(pb)
	require.Error(t, err)
}

func TestForKind(t *testing.T) {
	d, err := ForKind(reading.KindClimate)
	require.NoError(t, err)
	require.Equal(t, reading.KindClimate, d.Kind())

	d, err = ForKind(reading.KindOxygen)
	require.NoError(t, err)
	require.Equal(t, reading.KindOxygen, d.Kind())

	_, err = ForKind(reading.SensorKind(99))
	require.Error(t, err)
}
