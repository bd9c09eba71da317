// Package log holds the process-wide zap logger. Components receive a
// *zap.SugaredLogger through their constructors; the package-level helpers
// are for main and the app lifecycle.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const serviceName = "pm10dash"

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

// Init builds the process logger. Debug selects zap's development config
// (console encoder, debug level); otherwise JSON at info level.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]interface{}{"service": serviceName}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

func current() *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger, _ = zap.NewProduction(zap.Fields(zap.String("service", serviceName)))
	}
	return logger
}

// GetSugaredLogger returns the logger handed to components
func GetSugaredLogger() *zap.SugaredLogger {
	return current().Sugar()
}

// helpers report their caller, not this file
func helper() *zap.SugaredLogger {
	return current().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		_ = logger.Sync()
	}
}

func Info(args ...interface{}) {
	helper().Info(args...)
}

func Infof(template string, args ...interface{}) {
	helper().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	helper().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	helper().Errorf(template, args...)
}
