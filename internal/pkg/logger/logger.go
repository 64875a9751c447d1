package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/qs3c/gym_go_server/config"
)

// New 按配置创建 slog 日志，并设置为默认 logger
func New(cfg config.LogConfig) *slog.Logger {
	l := newWithWriter(cfg, os.Stdout)
	slog.SetDefault(l)
	return l
}

func newWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Discard 测试用，丢弃所有输出
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
