package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the global logger
type Options struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Debug      bool
}

var (
	logger   *zap.Logger
	sugar    *zap.SugaredLogger
	fileSink *lumberjack.Logger
	mu       sync.RWMutex
	isSetup  bool
)

// SetupLogger initializes the global logger with a stdout core and an optional rolling file core
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	level := parseLevel(opts.Level)
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	enabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level })
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(os.Stdout), enabler),
	}

	if opts.Path != "" {
		if dir := filepath.Dir(opts.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %v", err)
			}
		}
		fileSink = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    nz(opts.MaxSizeMB, 100),
			MaxBackups: nz(opts.MaxBackups, 3),
			MaxAge:     nz(opts.MaxAgeDays, 7),
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), enabler))
	}

	zopts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if opts.Debug {
		zopts = append(zopts, zap.Development())
	}

	logger = zap.New(zapcore.NewTee(cores...), zopts...)
	sugar = logger.Sugar()
	isSetup = true

	sugar.Infof("--- photobatch log started at %s ---", time.Now().Format(time.RFC3339))
	return nil
}

// CloseLogger flushes and closes the log sinks
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if !isSetup {
		return
	}
	sugar.Infof("--- photobatch log closed at %s ---", time.Now().Format(time.RFC3339))
	_ = logger.Sync()
	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}
	logger = nil
	sugar = nil
	isSetup = false
}

// Logger returns the structured logger, a no-op logger before setup
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if logger == nil {
		return zap.NewNop()
	}
	return logger.WithOptions(zap.AddCallerSkip(-1))
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Infof(format, args...)
	}
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Debugf(format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Errorf(format, args...)
	}
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Warnf(format, args...)
	}
}

// LogImageProcessed logs the outcome of one image
func LogImageProcessed(name string, success bool, errMsg string) {
	s := current()
	if s == nil {
		return
	}
	if success {
		s.Infow("processed", "file", name)
	} else {
		s.Warnw("failed", "file", name, "error", errMsg)
	}
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
