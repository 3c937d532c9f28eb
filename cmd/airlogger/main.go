package main

import (
	"flag"
	"log"

	"github.com/sensormux/airlogger/internal/app"
)

func main() {
	configPath := flag.String("config", "airlogger.yaml", "path to the configuration file")
	flag.Parse()

	if err := app.RunLogger(*configPath); err != nil {
		log.Fatalf("airlogger: %v", err)
	}
}
