// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sdlog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/sensormux/airlogger/internal/reading"
)

const header = "timestamp,device,channel,sensor_type,data\n"

// failureMarker is written in the data column when the driver could not
// produce a value.
const failureMarker = "error"

// Logger appends one row per reading to a log file on the mounted SD volume.
// The file handle is opened per flush and released on every exit path, so a
// card pulled between flushes only fails that flush.
type Logger struct {
	path   string
	device string
}

// New returns a logger appending to path. The volume must already be
// mounted; bringing it up is the supervisor's job.
func New(path, device string) *Logger {
	return &Logger{path: path, device: device}
}

func (l *Logger) Name() string { return "sdlog" }

// Flush appends the batch in read order. The header row is written when the
// file is created empty.
func (l *Logger) Flush(batch []reading.Reading) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("sdlog: open %s: %w", l.path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("sdlog: stat %s: %w", l.path, err)
	}
	w := bufio.NewWriter(f)
	if st.Size() == 0 {
		if _, err := w.WriteString(header); err != nil {
			return fmt.Errorf("sdlog: write header: %w", err)
		}
	}
	for i := range batch {
		if _, err := w.WriteString(l.row(&batch[i])); err != nil {
			return fmt.Errorf("sdlog: append row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("sdlog: append: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sdlog: sync: %w", err)
	}
	return nil
}

func (l *Logger) row(r *reading.Reading) string {
	ts := strconv.FormatFloat(float64(r.Timestamp.UnixMilli())/1000.0, 'f', 3, 64)
	var data string
	switch s := r.Sample.(type) {
	case reading.ClimateSample:
		data = fmt.Sprintf("%.0f,%.2f,%.2f", s.CO2PPM, s.TemperatureC, s.HumidityRH)
	case reading.OxygenSample:
		data = fmt.Sprintf("%.2f", s.Percent)
	default:
		data = failureMarker
	}
	return fmt.Sprintf("%s,%s,%d,%s,%s\n", ts, l.device, r.Channel, r.Kind, data)
}
