package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// SLIDES_LOG_LEVEL controls the log level: debug, info, warn, error (default: info).
// SLIDES_LOG_FORMAT selects the output: console (default) or json. Lambda
// deployments use json so CloudWatch Logs Insights can index the fields.
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("SLIDES_LOG_LEVEL")))

	if strings.EqualFold(os.Getenv("SLIDES_LOG_FORMAT"), "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
