// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package reading

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// SensorKind identifies one of the supported sensor variants. The set is
// closed: a new sensor means a new constant, a new Sample type and a new
// driver, all checked at compile time.
type SensorKind uint8

const (
	// KindClimate is the SCD40 CO2/temperature/humidity transceiver.
	KindClimate SensorKind = iota
	// KindOxygen is the Gravity electrochemical oxygen transceiver.
	KindOxygen
)

// String returns the wire tag used in serialized readings and log rows.
func (k SensorKind) String() string {
	switch k {
	case KindClimate:
		return "CO2"
	case KindOxygen:
		return "O2"
	}
	return fmt.Sprintf("SensorKind(%d)", uint8(k))
}

// KindFromTag maps a wire tag back to its SensorKind.
func KindFromTag(tag string) (SensorKind, error) {
	switch tag {
	case "CO2":
		return KindClimate, nil
	case "O2":
		return KindOxygen, nil
	}
	return 0, fmt.Errorf("unknown sensor tag %q", tag)
}

// Sample is the payload of one successful sensor read.
type Sample interface {
	sample()
}

// ClimateSample is one SCD40 measurement.
type ClimateSample struct {
	CO2PPM       float64
	TemperatureC float64
	HumidityRH   float64
}

// OxygenSample is one Gravity oxygen measurement.
type OxygenSample struct {
	Percent float64
}

func (ClimateSample) sample() {}
func (OxygenSample) sample()  {}

// Reading is one timestamped result from a multiplexer channel. A nil Sample
// marks a read that failed; the reading is still recorded so the gap is
// visible downstream. Readings are immutable once created.
type Reading struct {
	Timestamp time.Time
	Channel   int
	Kind      SensorKind
	Sample    Sample
}

// Failed reports whether the driver could not produce a value.
func (r Reading) Failed() bool { return r.Sample == nil }

// wireReading is the JSON shape consumed by the BLE central and by the
// offline tooling that reads the persisted log. The data field holds a
// [co2, temperature, humidity] triple for climate readings, a bare number
// for oxygen readings, and null for failed reads.
type wireReading struct {
	Timestamp  float64         `json:"timestamp"`
	Channel    int             `json:"channel"`
	SensorType string          `json:"sensor_type"`
	Data       json.RawMessage `json:"data"`
}

func (r Reading) MarshalJSON() ([]byte, error) {
	w := wireReading{
		Timestamp:  float64(r.Timestamp.UnixMilli()) / 1000.0,
		Channel:    r.Channel,
		SensorType: r.Kind.String(),
	}
	switch s := r.Sample.(type) {
	case nil:
		w.Data = json.RawMessage("null")
	case ClimateSample:
		b, err := json.Marshal([3]float64{s.CO2PPM, s.TemperatureC, s.HumidityRH})
		if err != nil {
			return nil, err
		}
		w.Data = b
	case OxygenSample:
		b, err := json.Marshal(s.Percent)
		if err != nil {
			return nil, err
		}
		w.Data = b
	default:
		return nil, fmt.Errorf("unsupported sample type %T", r.Sample)
	}
	return json.Marshal(w)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := KindFromTag(w.SensorType)
	if err != nil {
		return err
	}
	r.Timestamp = time.UnixMilli(int64(math.Round(w.Timestamp * 1000.0))).UTC()
	r.Channel = w.Channel
	r.Kind = kind
	r.Sample = nil
	if len(w.Data) == 0 || string(w.Data) == "null" {
		return nil
	}
	switch kind {
	case KindClimate:
		var v [3]float64
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return fmt.Errorf("climate data: %w", err)
		}
		r.Sample = ClimateSample{CO2PPM: v[0], TemperatureC: v[1], HumidityRH: v[2]}
	case KindOxygen:
		var v float64
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return fmt.Errorf("oxygen data: %w", err)
		}
		r.Sample = OxygenSample{Percent: v}
	}
	return nil
}
