package main

import (
	"flag"
	"log"

	"github.com/sensormux/airlogger/internal/app"
)

func main() {
	configPath := flag.String("config", "airlogger.yaml", "path to the configuration file")
	flag.Parse()

	if err := app.RunProbe(*configPath); err != nil {
		log.Fatalf("probe: %v", err)
	}
}
