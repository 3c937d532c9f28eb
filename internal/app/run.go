// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sensormux/airlogger/internal/config"
	"github.com/sensormux/airlogger/internal/mux"
	"github.com/sensormux/airlogger/internal/scheduler"
	"github.com/sensormux/airlogger/internal/sensors"
	"github.com/sensormux/airlogger/internal/sink"
	"github.com/sensormux/airlogger/internal/sink/ble"
	"github.com/sensormux/airlogger/internal/sink/console"
	"github.com/sensormux/airlogger/internal/sink/mqttpub"
	"github.com/sensormux/airlogger/internal/sink/sdlog"
)

// RunLogger brings up the hardware and runs the acquisition loop until the
// board is powered off. Any error returned here is a fatal initialization
// fault; recovery is the supervisor's job.
func RunLogger(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Printf("starting %s acquisition loop", cfg.DeviceName)

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", cfg.I2C.Bus, err)
	}
	defer bus.Close()

	m, err := openMux(cfg)
	if err != nil {
		return err
	}
	channels, err := buildChannels(cfg)
	if err != nil {
		return err
	}
	sinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Options{
		Bus:         bus,
		Selector:    m,
		Channels:    channels,
		Sinks:       sinks,
		TickPeriod:  time.Duration(cfg.Sampling.TickMs) * time.Millisecond,
		FlushPeriod: time.Duration(cfg.Sampling.FlushMs) * time.Millisecond,
		MaxBuffered: cfg.Sampling.MaxBuffered,
	})
	if err != nil {
		return err
	}
	sched.Run()
	return nil
}

func openMux(cfg *config.Config) (*mux.Multiplexer, error) {
	pins := make([]gpio.PinOut, 0, len(cfg.Mux.SelectPins))
	for _, name := range cfg.Mux.SelectPins {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("mux select pin %q not found", name)
		}
		pins = append(pins, p)
	}
	enable := gpioreg.ByName(cfg.Mux.EnablePin)
	if enable == nil {
		return nil, fmt.Errorf("mux enable pin %q not found", cfg.Mux.EnablePin)
	}
	return mux.New("MUX1", pins, enable, time.Duration(cfg.Mux.SettleMs)*time.Millisecond)
}

func buildChannels(cfg *config.Config) ([]scheduler.Channel, error) {
	out := make([]scheduler.Channel, 0, len(cfg.Channels))
	for _, cc := range cfg.Channels {
		kind, err := cc.Kind()
		if err != nil {
			return nil, err
		}
		drv, err := sensors.ForKind(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, scheduler.Channel{
			Index:    cc.Index,
			Driver:   drv,
			Interval: cc.Interval(),
		})
	}
	return out, nil
}

func buildSinks(cfg *config.Config) ([]sink.Sink, error) {
	sinks := []sink.Sink{sdlog.New(cfg.Storage.Path, cfg.DeviceName)}

	bleName := cfg.BLE.Name
	if bleName == "" {
		bleName = cfg.DeviceName
	}
	bleSink, err := ble.NewSink(bleName, cfg.BLE.MaxPayload)
	if err != nil {
		return nil, fmt.Errorf("ble sink: %w", err)
	}
	sinks = append(sinks, bleSink)

	if cfg.MQTT.Enabled {
		mq, err := mqttpub.New(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			return nil, fmt.Errorf("mqtt sink: %w", err)
		}
		sinks = append(sinks, mq)
	}
	if cfg.Console {
		sinks = append(sinks, console.Sink{})
	}
	return sinks, nil
}
