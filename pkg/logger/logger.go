package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process logger for the given environment.
// "production" logs JSON at info level, everything else logs colored console output at debug level.
func Init(env string) {
	SetLogger(New(env, os.Stdout))
}

// New returns a zap logger writing to w, configured for env.
func New(env string, w zapcore.WriteSyncer) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
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

	var (
		encoder zapcore.Encoder
		level   zapcore.Level
	)
	if strings.EqualFold(env, "production") {
		encoder = zapcore.NewJSONEncoder(encCfg)
		level = zapcore.InfoLevel
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(encoder, w, level)
	// skip one frame so the caller of logger.Info is reported, not this package
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
}

// SetLogger replaces the process logger. Tests use it with an observer core.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debug(msg string, args ...any) {
	current().Debug(msg, fields(args)...)
}

func Info(msg string, args ...any) {
	current().Info(msg, fields(args)...)
}

func Warn(msg string, args ...any) {
	current().Warn(msg, fields(args)...)
}

func Error(msg string, args ...any) {
	current().Error(msg, fields(args)...)
}

func Fatal(msg string, args ...any) {
	current().Fatal(msg, fields(args)...)
}

func Sync() error {
	return current().Sync()
}

// fields turns loose call arguments into zap fields.
// Accepted shapes: an error value, a zap.Field, or a string key followed by its value.
// Anything else is logged under "arg".
func fields(args []any) []zap.Field {
	out := make([]zap.Field, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case zap.Field:
			out = append(out, v)
		case error:
			out = append(out, zap.Error(v))
		case string:
			if i+1 < len(args) {
				out = append(out, zap.Any(v, args[i+1]))
				i++
				continue
			}
			out = append(out, zap.String("arg", v))
		default:
			out = append(out, zap.Any("arg", v))
		}
	}
	return out
}
