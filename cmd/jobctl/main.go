// Command jobctl is a terminal front end for the job board API.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/jobboard-be/internal/logger"
)

func main() {
	logger.Init(os.Getenv("JOBCTL_LOG_LEVEL"), true)

	if err := newRootCmd().Execute(); err != nil {
		log.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
