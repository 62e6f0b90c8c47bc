package apns

import (
	"os"

	"github.com/rs/zerolog"
)

// LogLevel is a bitset; a Context logs a message at level L only if
// L is set in its configured log level (bits AND-tested, not an
// ordered threshold).
type LogLevel uint8

const (
	LogInfo LogLevel = 1 << iota
	LogError
	LogDebug
)

func (l LogLevel) has(bit LogLevel) bool {
	return l&bit != 0
}

func (l LogLevel) zerologLevel() zerolog.Level {
	switch {
	case l.has(LogDebug):
		return zerolog.DebugLevel
	case l.has(LogInfo):
		return zerolog.InfoLevel
	case l.has(LogError):
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// Options is a bitset controlling Context behavior.
type Options uint8

const (
	// ReconnectOnError enables the delivery loop's auto-reconnect
	// and resume policy (§4.E step 6).
	ReconnectOnError Options = 1 << iota
	// LogToStderr enables the default zerolog-backed log sink when
	// no LogFunc has been registered via SetLogCallback.
	LogToStderr
)

func (o Options) has(bit Options) bool {
	return o&bit != 0
}

// LogFunc receives one log line per call; it must not touch Context
// state (§6 "Callbacks").
type LogFunc func(level LogLevel, message string)

// InvalidTokenFunc is invoked exactly once per rejected token during
// a Send.
type InvalidTokenFunc func(hexToken string, index int)

// defaultLogger backs the stderr sink used when LogToStderr is set
// and no LogFunc is registered. It is built once, at package
// initialization, and shared by every Context.
var defaultLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()

func (c *Context) log(level LogLevel, component string, message string, fields map[string]interface{}) {
	if !c.logLevel.has(level) {
		return
	}

	if c.logCallback != nil {
		c.logCallback(level, message)
		return
	}

	if !c.options.has(LogToStderr) {
		return
	}

	event := defaultLogger.WithLevel(level.zerologLevel()).Str("component", component)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(message)
}
