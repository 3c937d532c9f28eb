package ble

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sensormux/airlogger/internal/reading"
)

type fakeTx struct {
	connected bool
	notified  [][]byte
	err       error
}

func (f *fakeTx) Connected() bool { return f.connected }

func (f *fakeTx) Notify(p []byte) error {
	if f.err != nil {
		return f.err
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	f.notified = append(f.notified, cp)
	return nil
}

func testBatch(n int) []reading.Reading {
	out := make([]reading.Reading, 0, n)
	for i := 0; i < n; i++ {
		r := reading.Reading{
			Timestamp: time.UnixMilli(1700000000000 + int64(i)*500).UTC(),
			Channel:   i % 14,
			Kind:      reading.KindClimate,
			Sample:    reading.ClimateSample{CO2PPM: 600 + float64(i), TemperatureC: 25.5, HumidityRH: 48.25},
		}
		if i%3 == 0 {
			r.Kind = reading.KindOxygen
			r.Sample = reading.OxygenSample{Percent: 20.9}
		}
		out = append(out, r)
	}
	return out
}

func TestBuildChunksBoundedAndSelfContained(t *testing.T) {
	batch := testBatch(10)
	const maxBytes = 200

	chunks, err := buildChunks(batch, maxBytes)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var reassembled []reading.Reading
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), maxBytes)
		// every chunk parses on its own
		var part []reading.Reading
		require.NoError(t, json.Unmarshal(c, &part))
		require.NotEmpty(t, part)
		reassembled = append(reassembled, part...)
	}
	require.Equal(t, batch, reassembled)
}

func TestBuildChunksSingleChunk(t *testing.T) {
	batch := testBatch(2)
	chunks, err := buildChunks(batch, 4096)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestBuildChunksOversizeEntry(t *testing.T) {
	// an entry larger than the budget still travels, alone in its chunk
	batch := testBatch(3)
	chunks, err := buildChunks(batch, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		var part []reading.Reading
		require.NoError(t, json.Unmarshal(c, &part))
		require.Len(t, part, 1)
	}
}

func TestBuildChunksEmptyBatch(t *testing.T) {
	chunks, err := buildChunks(nil, 180)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestFlushNoSubscriber(t *testing.T) {
	tx := &fakeTx{connected: false}
	s := &Sink{tx: tx, maxPayload: 180}

	err := s.Flush(testBatch(4))
	require.ErrorIs(t, err, ErrNoSubscriber)
	require.Empty(t, tx.notified)
}

func TestFlushNotifiesOrderedChunks(t *testing.T) {
	tx := &fakeTx{connected: true}
	s := &Sink{tx: tx, maxPayload: 200}

	batch := testBatch(10)
	require.NoError(t, s.Flush(batch))
	require.Greater(t, len(tx.notified), 1)

	var reassembled []reading.Reading
	for _, c := range tx.notified {
		var part []reading.Reading
		require.NoError(t, json.Unmarshal(c, &part))
		reassembled = append(reassembled, part...)
	}
	require.Equal(t, batch, reassembled)
}

func TestFlushNotifyFault(t *testing.T) {
	tx := &fakeTx{connected: true, err: errors.New("disconnected mid-send")}
	s := &Sink{tx: tx, maxPayload: 180}

	err := s.Flush(testBatch(2))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoSubscriber)
}
