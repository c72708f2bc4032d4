package application

import (
	"io"
	"log/slog"
	"strings"

	"thirdcoast.systems/ytingest/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(w io.Writer, conf config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(conf.LogLevel)}
	if strings.EqualFold(conf.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a configured level name to a slog level. Unknown names fall
// back to info.
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
