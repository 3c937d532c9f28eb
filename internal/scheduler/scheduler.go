// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scheduler

import (
	"fmt"
	"log"
	"sort"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/sensormux/airlogger/internal/reading"
	"github.com/sensormux/airlogger/internal/sensors"
	"github.com/sensormux/airlogger/internal/sink"
)

// Selector routes the shared bus to one physical channel. Satisfied by
// mux.Multiplexer.
type Selector interface {
	Select(channel int) error
}

// Channel is one multiplexer slot: a physical sensor behind a channel index,
// with its own minimum read interval. Channels are configured once at
// startup and never change during a run.
type Channel struct {
	Index    int
	Driver   sensors.Driver
	Interval time.Duration
}

// Options configures a Scheduler.
type Options struct {
	Bus         i2c.Bus
	Selector    Selector
	Channels    []Channel
	Sinks       []sink.Sink
	TickPeriod  time.Duration
	FlushPeriod time.Duration
	// MaxBuffered bounds the batch buffer; <= 0 means unbounded.
	MaxBuffered int
}

// Scheduler is the acquisition core: one cooperative loop that services due
// channels on every tick and periodically hands the accumulated batch to the
// sinks. All elapsed-time state (per-channel last successful read, last
// flush) lives here, scoped to the scheduler's lifetime. Only the active
// tick touches the bus, so sensor reads are serialized structurally.
type Scheduler struct {
	bus         i2c.Bus
	selector    Selector
	channels    []Channel
	sinks       []sink.Sink
	buffer      *Buffer
	tickPeriod  time.Duration
	flushPeriod time.Duration

	lastRead  map[int]time.Time
	lastFlush time.Time

	now func() time.Time
}

// New validates the options and returns a scheduler ready to Run.
func New(o Options) (*Scheduler, error) {
	if o.Selector == nil {
		return nil, fmt.Errorf("scheduler: selector is required")
	}
	if len(o.Channels) == 0 {
		return nil, fmt.Errorf("scheduler: at least one channel is required")
	}
	if o.TickPeriod <= 0 {
		return nil, fmt.Errorf("scheduler: tick period must be positive")
	}
	if o.FlushPeriod <= 0 {
		return nil, fmt.Errorf("scheduler: flush period must be positive")
	}
	channels := make([]Channel, len(o.Channels))
	copy(channels, o.Channels)
	// Simultaneously due channels are serviced in ascending index order.
	sort.Slice(channels, func(i, j int) bool { return channels[i].Index < channels[j].Index })
	seen := make(map[int]bool, len(channels))
	for _, ch := range channels {
		if ch.Driver == nil {
			return nil, fmt.Errorf("scheduler: channel %d has no driver", ch.Index)
		}
		if ch.Interval <= 0 {
			return nil, fmt.Errorf("scheduler: channel %d interval must be positive", ch.Index)
		}
		if seen[ch.Index] {
			return nil, fmt.Errorf("scheduler: duplicate channel index %d", ch.Index)
		}
		seen[ch.Index] = true
	}
	return &Scheduler{
		bus:         o.Bus,
		selector:    o.Selector,
		channels:    channels,
		sinks:       o.Sinks,
		buffer:      NewBuffer(o.MaxBuffered),
		tickPeriod:  o.TickPeriod,
		flushPeriod: o.FlushPeriod,
		lastRead:    make(map[int]time.Time, len(channels)),
		now:         time.Now,
	}, nil
}

// Start initializes the per-channel and flush timers. The first read of a
// channel happens one full interval after Start.
func (s *Scheduler) Start(now time.Time) {
	s.lastFlush = now
	for _, ch := range s.channels {
		s.lastRead[ch.Index] = now
	}
}

// Run drives the acquisition loop until the process is stopped. There is no
// cancellation: the board runs until powered off.
func (s *Scheduler) Run() {
	s.Start(s.now())
	log.Printf("scheduler: %d channels, tick %v, flush every %v",
		len(s.channels), s.tickPeriod, s.flushPeriod)
	ticker := time.NewTicker(s.tickPeriod)
	defer ticker.Stop()
	for t := range ticker.C {
		s.Tick(t)
	}
}

// Tick services every due channel in ascending index order, then flushes the
// batch when the flush period has elapsed.
func (s *Scheduler) Tick(now time.Time) {
	if s.lastFlush.IsZero() {
		s.Start(now)
	}
	for i := range s.channels {
		ch := &s.channels[i]
		if now.Sub(s.lastRead[ch.Index]) < ch.Interval {
			continue
		}
		s.service(ch, now)
	}
	if now.Sub(s.lastFlush) >= s.flushPeriod {
		s.flush(now)
	}
}

// service selects the channel and performs one read. A selector fault skips
// the channel for this tick; a driver fault is recorded as a failure-tagged
// reading. The last-read timestamp moves only on success, so a failed
// channel is retried on the very next tick instead of waiting out its
// interval.
func (s *Scheduler) service(ch *Channel, now time.Time) {
	if err := s.selector.Select(ch.Index); err != nil {
		log.Printf("channel %d: select: %v", ch.Index, err)
		return
	}
	r := reading.Reading{Timestamp: now, Channel: ch.Index, Kind: ch.Driver.Kind()}
	sample, err := ch.Driver.Read(s.bus)
	if err != nil {
		log.Printf("channel %d (%s): read: %v", ch.Index, ch.Driver.Kind(), err)
	} else {
		r.Sample = sample
		s.lastRead[ch.Index] = now
	}
	s.buffer.Append(r)
}

// flush drains the buffer and hands the batch to every sink. Sink failures
// are independent of each other and never replay the batch: once drained,
// a missed flush window is a recorded data loss, not a retry.
func (s *Scheduler) flush(now time.Time) {
	batch := s.buffer.Drain()
	s.lastFlush = now
	if len(batch) == 0 {
		return
	}
	for _, snk := range s.sinks {
		if err := snk.Flush(batch); err != nil {
			log.Printf("sink %s: flush of %d readings failed: %v", snk.Name(), len(batch), err)
		}
	}
	if dropped := s.buffer.Dropped(); dropped > 0 {
		log.Printf("scheduler: %d readings dropped since startup (buffer cap reached)", dropped)
	}
}
