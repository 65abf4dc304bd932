// Package logger provides the gateway's process-wide structured logger.
// It wraps a zap SugaredLogger and exposes it as package-level functions so
// call sites never need to thread a logger instance through.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

func init() {
	log = build("info").Sugar()
}

// Initialize replaces the process-wide logger, reading its level from the
// given string ("debug", "info", "warn", "error"). Unknown levels fall back
// to "info".
func Initialize(level string) {
	mu.Lock()
	defer mu.Unlock()
	log = build(level).Sugar()
}

func build(level string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(os.Stderr), lvl)
	return zap.New(core, zap.AddCaller())
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(args ...interface{})                  { current().Debug(args...) }
func Debugf(template string, args ...interface{}) { current().Debugf(template, args...) }
func Debugw(msg string, kv ...interface{})        { current().Debugw(msg, kv...) }

func Info(args ...interface{})                  { current().Info(args...) }
func Infof(template string, args ...interface{}) { current().Infof(template, args...) }
func Infow(msg string, kv ...interface{})        { current().Infow(msg, kv...) }

func Warn(args ...interface{})                  { current().Warn(args...) }
func Warnf(template string, args ...interface{}) { current().Warnf(template, args...) }
func Warnw(msg string, kv ...interface{})        { current().Warnw(msg, kv...) }

func Error(args ...interface{})                  { current().Error(args...) }
func Errorf(template string, args ...interface{}) { current().Errorf(template, args...) }
func Errorw(msg string, kv ...interface{})        { current().Errorw(msg, kv...) }

func Panic(args ...interface{})                  { current().Panic(args...) }
func Panicf(template string, args ...interface{}) { current().Panicf(template, args...) }

func Fatal(args ...interface{})                  { current().Fatal(args...) }
func Fatalf(template string, args ...interface{}) { current().Fatalf(template, args...) }

// Sync flushes buffered log entries. Call before process exit.
func Sync() error {
	return current().Sync()
}
