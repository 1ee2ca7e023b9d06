package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by New.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatZerolog = "zerolog"
	FormatPretty  = "pretty"
)

// New builds a Logger writing to w (os.Stdout when nil). text and json use
// slog; zerolog emits zerolog JSON and pretty uses zerolog's console writer.
// Unknown formats fall back to text; unknown levels fall back to info.
func New(format, level string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}

	switch f := strings.ToLower(format); f {
	case FormatZerolog, FormatPretty:
		if f == FormatPretty {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}
		zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
		return NewZerologLogger(zl)
	case FormatJSON:
		return newSlog(w, true, level)
	default:
		return newSlog(w, false, level)
	}
}

func zerologLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
