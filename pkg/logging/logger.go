package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options controls how a logger is built
type Options struct {
	Name       string
	Level      string    // debug, info, warn, error; unknown values fall back to info
	JSONFormat bool      // emit JSON lines instead of the human readable format
	Output     io.Writer // defaults to os.Stderr so command output stays clean
}

// New creates a structured logger
func New(opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      ParseLevel(opts.Level),
		JSONFormat: opts.JSONFormat,
		Output:     output,
	})
}

// Discard returns a logger that drops everything
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// ParseLevel parses a log level string
func ParseLevel(level string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "info", "":
		return hclog.Info
	case "warn", "warning":
		return hclog.Warn
	case "error":
		return hclog.Error
	case "off", "none":
		return hclog.Off
	default:
		return hclog.Info
	}
}
