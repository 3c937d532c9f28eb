package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sensormux/airlogger/internal/mux"
	"github.com/sensormux/airlogger/internal/reading"
)

// Config holds the static board configuration. It is loaded once at startup
// and never mutated during a run.
type Config struct {
	DeviceName string          `yaml:"device_name"`
	I2C        I2CConfig       `yaml:"i2c"`
	Mux        MuxConfig       `yaml:"mux"`
	Channels   []ChannelConfig `yaml:"channels"`
	Sampling   SamplingConfig  `yaml:"sampling"`
	Storage    StorageConfig   `yaml:"storage"`
	BLE        BLEConfig       `yaml:"ble"`
	MQTT       MQTTConfig      `yaml:"mqtt"`
	Console    bool            `yaml:"console"`
}

// I2CConfig selects the shared bus all sensors sit behind.
type I2CConfig struct {
	// Bus is a periph i2creg reference ("1", "/dev/i2c-1"); empty means the
	// first available bus.
	Bus string `yaml:"bus"`
}

// MuxConfig names the multiplexer control lines.
type MuxConfig struct {
	// SelectPins are the four select lines, most significant bit first.
	SelectPins []string `yaml:"select_pins"`
	EnablePin  string   `yaml:"enable_pin"`
	SettleMs   int      `yaml:"settle_ms"`
}

// ChannelConfig assigns a sensor kind and duty cycle to one multiplexer
// channel.
type ChannelConfig struct {
	Index      int    `yaml:"index"`
	Sensor     string `yaml:"sensor"` // "climate" or "oxygen"
	IntervalMs int    `yaml:"interval_ms"`
}

// Kind maps the configured sensor name to its SensorKind.
func (c ChannelConfig) Kind() (reading.SensorKind, error) {
	switch c.Sensor {
	case "climate":
		return reading.KindClimate, nil
	case "oxygen":
		return reading.KindOxygen, nil
	}
	return 0, fmt.Errorf("channel %d: unknown sensor %q", c.Index, c.Sensor)
}

// Interval returns the channel's minimum read interval.
func (c ChannelConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// SamplingConfig sets the scheduler cadence.
type SamplingConfig struct {
	TickMs      int `yaml:"tick_ms"`
	FlushMs     int `yaml:"flush_ms"`
	MaxBuffered int `yaml:"max_buffered"`
}

// StorageConfig points at the appended log on the mounted SD volume.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// BLEConfig tunes the wireless sink.
type BLEConfig struct {
	// Name is the advertised local name; empty means the device name.
	Name string `yaml:"name"`
	// MaxPayload bounds each notification chunk in bytes.
	MaxPayload int `yaml:"max_payload"`
}

// MQTTConfig enables the optional LAN mirror sink.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// Default returns the stock configuration: climate and oxygen sensors
// alternating across channels 0-13, matching the wiring of the reference
// rig.
func Default() *Config {
	cfg := &Config{
		DeviceName: "airlogger-1",
		Mux: MuxConfig{
			SelectPins: []string{"GPIO5", "GPIO4", "GPIO3", "GPIO2"},
			EnablePin:  "GPIO11",
			SettleMs:   10,
		},
		Sampling: SamplingConfig{
			TickMs:      50,
			FlushMs:     60000,
			MaxBuffered: 4096,
		},
		Storage: StorageConfig{Path: "/mnt/sd/log_sensors.csv"},
		BLE:     BLEConfig{MaxPayload: 180},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "airlogger",
			Topic:    "airlogger/batch",
		},
	}
	for i := 0; i < 14; i++ {
		ch := ChannelConfig{Index: i, Sensor: "oxygen", IntervalMs: 15000}
		if i%2 == 1 {
			ch = ChannelConfig{Index: i, Sensor: "climate", IntervalMs: 5000}
		}
		cfg.Channels = append(cfg.Channels, ch)
	}
	return cfg
}

// Load reads the YAML configuration file. A missing file yields the
// defaults; a present file is validated after parsing.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the configuration that would otherwise fail
// deep inside startup.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device_name is required")
	}
	if len(c.Mux.SelectPins) != 4 {
		return fmt.Errorf("mux.select_pins must name 4 pins, got %d", len(c.Mux.SelectPins))
	}
	if c.Mux.EnablePin == "" {
		return fmt.Errorf("mux.enable_pin is required")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("at least one channel must be configured")
	}
	seen := make(map[int]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if ch.Index < 0 || ch.Index >= mux.NumChannels {
			return fmt.Errorf("channel index %d outside 0..%d", ch.Index, mux.NumChannels-1)
		}
		if seen[ch.Index] {
			return fmt.Errorf("duplicate channel index %d", ch.Index)
		}
		seen[ch.Index] = true
		if _, err := ch.Kind(); err != nil {
			return err
		}
		if ch.IntervalMs <= 0 {
			return fmt.Errorf("channel %d: interval_ms must be positive", ch.Index)
		}
	}
	if c.Sampling.TickMs <= 0 {
		return fmt.Errorf("sampling.tick_ms must be positive")
	}
	if c.Sampling.FlushMs <= 0 {
		return fmt.Errorf("sampling.flush_ms must be positive")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}
