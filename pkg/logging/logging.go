// Package logging wraps go.uber.org/zap behind a small package-level API so
// every component logs through the same encoder and level without threading
// a logger through each constructor. Components tag their lines with
// WithComponent; the planner, fetcher, and adapters all log this way.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding, and sinks for the shared logger.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format selects the encoder: "json" or "console".
	Format string `yaml:"format"`

	// OutputPaths are the log sinks; stderr when empty.
	OutputPaths []string `yaml:"output_paths"`
}

var (
	mu    sync.RWMutex
	once  sync.Once
	root  *zap.SugaredLogger
	level zap.AtomicLevel
)

// Init configures the shared logger. The first call wins; later calls are
// no-ops so library code can Init defensively without clobbering the CLI's
// chosen configuration. Tests that need a different configuration use
// Reinit.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if root != nil {
			return
		}
		err = configure(cfg)
	})
	return err
}

// Reinit rebuilds the shared logger unconditionally.
func Reinit(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	return configure(cfg)
}

// configure builds the zap core for cfg. Callers hold mu.
func configure(cfg Config) error {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level = zap.NewAtomicLevelAt(lvl)

	enc := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoding := cfg.Format
	if encoding != "json" {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeDuration = zapcore.StringDurationEncoder
	}

	sinks := cfg.OutputPaths
	if len(sinks) == 0 {
		sinks = []string{"stderr"}
	}

	logger, err := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      sinks,
		ErrorOutputPaths: []string{"stderr"},
	}.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	root = logger.Sugar()
	return nil
}

// shared returns the current logger, building one with defaults if no Init
// call happened yet (covers tests and library consumers that never touch
// the CLI path).
func shared() *zap.SugaredLogger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}
	_ = Init(Config{Level: "info", Format: "console"})
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// SetLevel changes the emitted level at runtime.
func SetLevel(l string) error {
	lvl, err := zapcore.ParseLevel(l)
	if err != nil {
		return err
	}
	shared()
	level.SetLevel(lvl)
	return nil
}

// WithComponent returns a logger whose lines carry a component tag, e.g.
// component=planner.
func WithComponent(component string) *zap.SugaredLogger {
	return shared().With("component", component)
}

// Debug logs at debug level with alternating key/value context.
func Debug(msg string, keysAndValues ...interface{}) {
	shared().Debugw(msg, keysAndValues...)
}

// Info logs at info level with alternating key/value context.
func Info(msg string, keysAndValues ...interface{}) {
	shared().Infow(msg, keysAndValues...)
}

// Warn logs at warn level with alternating key/value context.
func Warn(msg string, keysAndValues ...interface{}) {
	shared().Warnw(msg, keysAndValues...)
}

// Error logs at error level with alternating key/value context.
func Error(msg string, keysAndValues ...interface{}) {
	shared().Errorw(msg, keysAndValues...)
}

// Fatal logs at fatal level and exits.
func Fatal(msg string, keysAndValues ...interface{}) {
	shared().Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered entries; call before process exit.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		return root.Sync()
	}
	return nil
}
