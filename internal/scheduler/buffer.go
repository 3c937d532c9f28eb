package scheduler

import (
	"sync"

	"github.com/sensormux/airlogger/internal/reading"
)

// Buffer accumulates readings between flush boundaries. Drain swaps out the
// backing slice under the lock, so an append racing a flush can never land
// in a batch that has already been handed to the sinks.
//
// Growth is bounded: when the cap is reached the oldest reading is dropped.
// Hitting the cap means flushes have been failing for a while; newer data is
// worth more than older data at that point, and the drop counter records the
// loss.
type Buffer struct {
	mu       sync.Mutex
	readings []reading.Reading
	limit    int
	dropped  uint64
}

// NewBuffer returns a buffer holding at most limit readings; limit <= 0
// means unbounded.
func NewBuffer(limit int) *Buffer {
	return &Buffer{limit: limit}
}

// Append adds one reading, evicting the oldest when the buffer is full.
func (b *Buffer) Append(r reading.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit > 0 && len(b.readings) >= b.limit {
		copy(b.readings, b.readings[1:])
		b.readings = b.readings[:len(b.readings)-1]
		b.dropped++
	}
	b.readings = append(b.readings, r)
}

// Drain returns the buffered readings in insertion order and resets the
// buffer to empty.
func (b *Buffer) Drain() []reading.Reading {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.readings
	b.readings = nil
	return out
}

// Len returns the number of buffered readings.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.readings)
}

// Dropped returns how many readings were evicted since startup.
func (b *Buffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
