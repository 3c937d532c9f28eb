package ble

import (
	"bytes"
	"encoding/json"

	"github.com/sensormux/airlogger/internal/reading"
)

// buildChunks serializes the batch into one or more JSON arrays, each at
// most maxBytes long. Every chunk is a complete, self-contained array so a
// central that does not reassemble still receives valid payloads; a central
// that does reassemble concatenates the element streams in notification
// order. A single reading whose encoding exceeds maxBytes gets a chunk of
// its own, oversize, because an element cannot be split.
func buildChunks(batch []reading.Reading, maxBytes int) ([][]byte, error) {
	var chunks [][]byte
	var cur [][]byte
	curLen := 2 // brackets

	flush := func() {
		if len(cur) == 0 {
			return
		}
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range cur {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(e)
		}
		buf.WriteByte(']')
		chunks = append(chunks, buf.Bytes())
		cur = nil
		curLen = 2
	}

	for i := range batch {
		enc, err := json.Marshal(batch[i])
		if err != nil {
			return nil, err
		}
		need := len(enc)
		if len(cur) > 0 {
			need++ // separating comma
		}
		if len(cur) > 0 && curLen+need > maxBytes {
			flush()
			need = len(enc)
		}
		cur = append(cur, enc)
		curLen += need
	}
	flush()
	return chunks, nil
}
