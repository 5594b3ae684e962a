package main

import (
	"forensia/internal/config"
	"forensia/internal/server"
	"forensia/internal/util"
	"forensia/pkg/logger"
	"forensia/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()
	cfg := config.Load()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	})
	logger.Init(consoleLogger)

	server.Init(cfg)
}
