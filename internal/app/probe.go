package app

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sensormux/airlogger/internal/config"
)

// RunProbe walks every configured channel once and prints the result.
// Bench tool for checking the wiring before leaving the loop running.
func RunProbe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

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

	for _, ch := range channels {
		if err := m.Select(ch.Index); err != nil {
			log.Printf("channel %2d: select: %v", ch.Index, err)
			continue
		}
		start := time.Now()
		sample, err := ch.Driver.Read(bus)
		if err != nil {
			log.Printf("channel %2d (%s): read: %v", ch.Index, ch.Driver.Kind(), err)
			continue
		}
		log.Printf("channel %2d (%s): %+v (%v)", ch.Index, ch.Driver.Kind(), sample, time.Since(start).Round(time.Millisecond))
	}
	return m.Disable()
}
