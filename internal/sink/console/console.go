package console

import (
	"encoding/json"
	"log"

	"github.com/sensormux/airlogger/internal/reading"
)

// Sink logs every flushed reading to stdout. Bench bring-up aid.
type Sink struct{}

func (Sink) Name() string { return "console" }

func (Sink) Flush(batch []reading.Reading) error {
	for i := range batch {
		b, err := json.Marshal(batch[i])
		if err != nil {
			return err
		}
		log.Printf("reading: %s", b)
	}
	return nil
}
