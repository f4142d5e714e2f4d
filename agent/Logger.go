package agent

import "github.com/rs/zerolog"

// logger is used by the function approximators of all agents. It
// discards everything until SetLogger is called.
var logger = zerolog.Nop()

// SetLogger sets the logger used by agents and their function
// approximators. It should be called before any agent is constructed.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// Logger returns the logger used by agents and their function
// approximators
func Logger() *zerolog.Logger {
	return &logger
}
