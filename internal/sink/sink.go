package sink

import "github.com/sensormux/airlogger/internal/reading"

// Sink is a destination for a flushed batch. Flush receives a read-only view
// of the batch in read order; implementations must not mutate or retain it.
// A failed flush is reported to the caller and never retried with the same
// batch, and no sink's failure may influence another sink's attempt.
type Sink interface {
	Name() string
	Flush(batch []reading.Reading) error
}
