// Package jsonlog is a logger backend writing one JSON object per line,
// meant for container deployments where logs are shipped to an aggregator.
package jsonlog

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// JSONLogger implements logger.LoggerInstance on top of zerolog.
type JSONLogger struct {
	logger zerolog.Logger
}

// JSONLoggerParams configures a JSONLogger.
type JSONLoggerParams struct {
	Service string
	Level   string
	Output  io.Writer
}

// NewJSONLogger creates a JSON logger writing to stdout unless another Output
// is given.
func NewJSONLogger(params JSONLoggerParams) *JSONLogger {
	out := params.Output
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(params.Level)
	if err != nil || params.Level == "" {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if params.Service != "" {
		ctx = ctx.Str("service", params.Service)
	}
	return &JSONLogger{logger: ctx.Logger()}
}

func (j *JSONLogger) Log(message string, keyvals ...any) {
	j.write(j.logger.Log(), message, keyvals)
}

func (j *JSONLogger) Debug(message string, keyvals ...any) {
	j.write(j.logger.Debug(), message, keyvals)
}

func (j *JSONLogger) Info(message string, keyvals ...any) {
	j.write(j.logger.Info(), message, keyvals)
}

func (j *JSONLogger) Warn(message string, keyvals ...any) {
	j.write(j.logger.Warn(), message, keyvals)
}

func (j *JSONLogger) Error(message string, keyvals ...any) {
	j.write(j.logger.Error(), message, keyvals)
}

// Fatal logs at FATAL level and exits the process.
func (j *JSONLogger) Fatal(message string, keyvals ...any) {
	j.write(j.logger.Fatal(), message, keyvals)
}

// write attaches key/value pairs to the event. A trailing key without value
// is recorded under "!BADKEY", errors are rendered with their message.
func (j *JSONLogger) write(e *zerolog.Event, message string, keyvals []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			e = e.Interface("!BADKEY", keyvals[i])
			break
		}
		switch v := keyvals[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case string:
			e = e.Str(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(message)
}
