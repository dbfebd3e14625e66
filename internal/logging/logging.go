package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON-lines logger writing to w. Each entry carries a "ts"
// field (RFC3339Nano in loc) and a "level" field. Unknown levels fall back to info.
func New(w io.Writer, loc *time.Location, level string) zerolog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).Hook(timestampHook{loc: loc})
}

// timestampHook stamps entries in a fixed location without touching
// zerolog's package-level time settings.
type timestampHook struct {
	loc *time.Location
}

func (h timestampHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("ts", time.Now().In(h.loc).Format(time.RFC3339Nano))
}
