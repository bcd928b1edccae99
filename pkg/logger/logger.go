package logx

import (
	"os"

	"github.com/rag-komite-audit/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LoggerOpts struct {
	Environment core.Environment
}

// Init configures the global logger. Production emits structured JSON at
// info level; any other environment gets a console writer with caller
// information at debug level.
func Init(opts LoggerOpts) {
	if opts.Environment == core.Production {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}

	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}
