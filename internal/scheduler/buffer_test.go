package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sensormux/airlogger/internal/reading"
)

func rd(ch int) reading.Reading {
	return reading.Reading{
		Timestamp: time.UnixMilli(1700000000000).UTC(),
		Channel:   ch,
		Kind:      reading.KindOxygen,
		Sample:    reading.OxygenSample{Percent: 20.9},
	}
}

func TestBufferAppendDrain(t *testing.T) {
	b := NewBuffer(0)
	for i := 0; i < 5; i++ {
		b.Append(rd(i))
	}
	require.Equal(t, 5, b.Len())

	batch := b.Drain()
	require.Len(t, batch, 5)
	for i, r := range batch {
		require.Equal(t, i, r.Channel)
	}
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Drain())
}

func TestBufferDropsOldestAtCap(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Append(rd(i))
	}
	require.Equal(t, 3, b.Len())
	require.Equal(t, uint64(2), b.Dropped())

	batch := b.Drain()
	require.Len(t, batch, 3)
	require.Equal(t, 2, batch[0].Channel)
	require.Equal(t, 4, batch[2].Channel)
}
