package pkg

import (
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "none"
	case LogLevelErrOnly:
		return "error"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	}
	return "unknown"
}

var (
	log_level  = LogLevelErrOnly
	log_output io.Writer = os.Stderr
)

// All loggers write to stderr: stdout is reserved for command output
// (dictionary listings, JSON dumps) so it can be piped.
var (
	info_logger  = log.New(io.Discard, "INFO: ", log.Lshortfile|log.LstdFlags)
	error_logger = log.New(os.Stderr, "ERROR: ", log.Lshortfile|log.LstdFlags)
	fatal_logger = log.New(os.Stderr, "FATAL: ", log.Lshortfile|log.LstdFlags)
	warn_logger  = log.New(io.Discard, "WARN: ", log.Lshortfile|log.LstdFlags)
	debug_logger = log.New(io.Discard, "DEBUG: ", log.Lshortfile|log.LstdFlags)
)

var (
	InfoLog  = info_logger.Println
	ErrorLog = error_logger.Println
	FatalLog = fatal_logger.Fatalln
	WarnLog  = warn_logger.Println
	DebugLog = debug_logger.Println
)

func GetLogLevel() LogLevel { return log_level }

func SetLogLevel(level LogLevel) {
	log_level = level
	applyLogLevel()
	DebugLog("log level set to", level)
}

// SetLogOutput redirects every enabled logger to w.
// Tests use it to capture output.
func SetLogOutput(w io.Writer) {
	log_output = w
	applyLogLevel()
}

func applyLogLevel() {
	out := func(enabled bool) io.Writer {
		if enabled {
			return log_output
		}
		return io.Discard
	}

	error_logger.SetOutput(out(log_level >= LogLevelErrOnly))
	fatal_logger.SetOutput(out(log_level >= LogLevelErrOnly))
	warn_logger.SetOutput(out(log_level >= LogLevelInfo))
	info_logger.SetOutput(out(log_level >= LogLevelInfo))
	debug_logger.SetOutput(out(log_level >= LogLevelDebug))
}
