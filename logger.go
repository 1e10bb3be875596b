package mdstream

import (
	"io"

	"github.com/pion/logging"
)

// LoggerFactory builds the package loggers. Its level follows the
// PION_LOG_<LEVEL> environment variables (scope "mdstream").
var LoggerFactory logging.LoggerFactory = logging.NewDefaultLoggerFactory()

// Logger is the package-wide logger.
var Logger = LoggerFactory.NewLogger("mdstream")

// SetLogger replaces Logger. nil silences it.
func SetLogger(logger logging.LeveledLogger) {
	if logger == nil {
		logger = logging.NewDefaultLeveledLoggerForScope("mdstream", logging.LogLevelDisabled, io.Discard)
	}
	Logger = logger
}
