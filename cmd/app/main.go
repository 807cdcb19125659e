package main

import (
	"clinicsched/config"
	"clinicsched/di"
	"clinicsched/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http := di.InitializeService()
	http.Serve()
}
