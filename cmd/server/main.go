// Package main is the entry point for the single-saberize API server
package main

import (
	"flag"
	"os"

	"github.com/BrokenLinc/single-saberize/pkg/api"
	"github.com/BrokenLinc/single-saberize/pkg/config"
	"github.com/BrokenLinc/single-saberize/pkg/logging"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	configFile := flag.String("config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.New(os.Stderr, "error").Fatal("Config error", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	tiers, err := cfg.TierTable()
	if err != nil {
		logger.Fatal("Config error", "err", err)
	}

	logger.Info("Starting single-saberize API server", "port", *port)
	logger.Infof("Swagger docs available at http://localhost:%d/swagger/index.html", *port)

	if err := api.StartServer(*port, api.NewServer(tiers, cfg.DropUnmerged, logger)); err != nil {
		logger.Fatal("Server error", "err", err)
	}
}
