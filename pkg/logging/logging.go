// guardian/pkg/logging/logging.go

package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var Logger zerolog.Logger

func init() {
	logLevel := zerolog.InfoLevel // Default log level
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Parse log level from environment variable
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if level, err := zerolog.ParseLevel(envLevel); err == nil {
			logLevel = level
		}
	}

	zerolog.SetGlobalLevel(logLevel)
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ConfigureLogger reconfigures the global logger for the requested level and
// output destination ("console" or "file").
func ConfigureLogger(logLevel, logOutput string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	switch logOutput {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "3:04PM"})
	case "file":
		file, err := os.Create("guardian.log")
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		log.Logger = log.Output(file)
	default:
		return fmt.Errorf("invalid log output option %q", logOutput)
	}

	Logger = log.Logger
	return nil
}
