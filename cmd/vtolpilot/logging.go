package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"vtolpilot/internal/config"
)

// setupLogging mirrors the standard logger to a rotated file when one is
// configured. The returned closer is never nil.
func setupLogging(cfg config.LogConfig, configPath string) io.Closer {
	if cfg.File == "" {
		return io.NopCloser(nil)
	}
	w := &lumberjack.Logger{
		Filename:   resolveRelative(configPath, cfg.File),
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	return w
}
