package sl

import (
	"io"
	"log/slog"
)

const (
	envDev  = "dev"
	envProd = "prod"
)

// New создаёт логгер по окружению: local пишет текст, dev и prod пишут JSON,
// prod начинается с уровня info.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
