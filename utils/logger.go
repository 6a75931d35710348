package utils

import (
	"log"
	"sync"

	"loadline/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.Mutex
)

func buildLogger() *zap.Logger {
	var cfg zap.Config
	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.InfoLevel
	if err := level.Set(config.AppConfig.LogLevel); err != nil || config.AppConfig.LogLevel == "" {
		if config.IsProduction() {
			level = zapcore.InfoLevel
		} else {
			level = zapcore.DebugLevel
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return l
}

// GetLogger returns the process-wide logger, building it on first use so
// config is loaded before the level is chosen.
func GetLogger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = buildLogger()
		zap.ReplaceGlobals(logger)
	}
	return logger
}
