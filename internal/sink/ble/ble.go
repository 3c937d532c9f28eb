// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ble

import (
	"errors"
	"fmt"
	"time"

	"github.com/sensormux/airlogger/internal/reading"
)

// DefaultMaxPayload is the per-notification byte budget. Conservative for a
// 185-byte ATT MTU minus the 3-byte notification header.
const DefaultMaxPayload = 180

// ErrNoSubscriber is returned by Flush when no central is connected; the
// send is a no-op and never blocks waiting for one.
var ErrNoSubscriber = errors.New("ble: no subscribed central")

// transmitter is the slice of the BLE stack the sink needs. Satisfied by
// peripheral and by test fakes.
type transmitter interface {
	Connected() bool
	Notify(p []byte) error
}

// Sink pushes flushed batches to a subscribed central over the notify
// characteristic, split into ordered chunks no larger than the payload
// budget.
type Sink struct {
	tx         transmitter
	maxPayload int
	chunkDelay time.Duration
}

// NewSink brings up the BLE peripheral, starts advertising under name and
// returns the wireless sink. Failure here is a fatal initialization fault.
func NewSink(name string, maxPayload int) (*Sink, error) {
	p, err := newPeripheral(name)
	if err != nil {
		return nil, err
	}
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Sink{tx: p, maxPayload: maxPayload, chunkDelay: 20 * time.Millisecond}, nil
}

func (s *Sink) Name() string { return "ble" }

func (s *Sink) Flush(batch []reading.Reading) error {
	if !s.tx.Connected() {
		return ErrNoSubscriber
	}
	chunks, err := buildChunks(batch, s.maxPayload)
	if err != nil {
		return fmt.Errorf("ble: encode batch: %w", err)
	}
	for i, c := range chunks {
		if err := s.tx.Notify(c); err != nil {
			return fmt.Errorf("ble: notify chunk %d/%d: %w", i+1, len(chunks), err)
		}
		// brief gap between notifications keeps slow centrals from
		// dropping chunks
		if s.chunkDelay > 0 && i < len(chunks)-1 {
			time.Sleep(s.chunkDelay)
		}
	}
	return nil
}
