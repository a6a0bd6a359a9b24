package logger

import (
	"fmt"

	"github.com/Robotvalley19/Geocaching-App/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger writes human readable, colored lines to stderr. Stdout is left
// to the downloader's progress output.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

func NewZapLogger(cfg config.Logger) (*ZapLogger, error) {
	z, err := newZapConfig(parseLevel(cfg.Level)).Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &ZapLogger{sugar: z.Sugar()}, nil
}

func newZapConfig(level zapcore.Level) zap.Config {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	enc := &zc.EncoderConfig
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	return zc
}

// parseLevel maps LOGGER_LEVEL to a zap level; unknown values mean info.
func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) { l.sugar.Debugw(msg, keysAndValues...) }
func (l *ZapLogger) Info(msg string, keysAndValues ...any)  { l.sugar.Infow(msg, keysAndValues...) }
func (l *ZapLogger) Warn(msg string, keysAndValues ...any)  { l.sugar.Warnw(msg, keysAndValues...) }
func (l *ZapLogger) Error(msg string, keysAndValues ...any) { l.sugar.Errorw(msg, keysAndValues...) }
func (l *ZapLogger) Fatal(msg string, keysAndValues ...any) { l.sugar.Fatalw(msg, keysAndValues...) }

// Sync flushes buffered entries; call it before the process exits.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
