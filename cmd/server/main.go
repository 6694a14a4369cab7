package main

import (
	"github.com/project-synapse/synapse/internal/server"
	"github.com/project-synapse/synapse/internal/util"
	"github.com/project-synapse/synapse/pkg/logger"
	"github.com/project-synapse/synapse/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
