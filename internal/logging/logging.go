package logging

import (
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/usersoap/usersvc/config"
)

// New builds a slog logger writing to w and sets it as the default.
// cfg.Format selects "json" or "text" (the default); cfg.Level is one of
// debug, info, warn or error.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RedactEmail keeps the first two runes of the local part and the domain.
// Inputs that are malformed or too short to redact are returned unchanged.
func RedactEmail(s string) string {
	s = strings.TrimSpace(s)
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}

	local, domain := s[:at], s[at+1:]
	if utf8.RuneCountInString(local) < 3 {
		return s
	}

	offset := 0
	for count := 0; count < 2; count++ {
		_, size := utf8.DecodeRuneInString(local[offset:])
		offset += size
	}
	return local[:offset] + "****@" + domain
}
