package loggers

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sirupsen/logrus"
)

var _ slog.Handler = (*LogrusHandler)(nil)

// LogrusHandler routes go-ethereum's rpc client logging into a module logger.
type LogrusHandler struct {
	Logger *logrus.Entry
	Level  slog.Leveler
	attrs  logrus.Fields
}

func toLogrusLevel(level slog.Level) logrus.Level {
	switch {
	case level >= log.LevelCrit:
		return logrus.FatalLevel
	case level >= slog.LevelError:
		return logrus.ErrorLevel
	case level >= slog.LevelWarn:
		return logrus.WarnLevel
	case level >= slog.LevelInfo:
		return logrus.InfoLevel
	case level >= slog.LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

func toSlogLevel(level logrus.Level) slog.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return log.LevelCrit
	case logrus.ErrorLevel:
		return slog.LevelError
	case logrus.WarnLevel:
		return slog.LevelWarn
	case logrus.InfoLevel:
		return slog.LevelInfo
	case logrus.DebugLevel:
		return slog.LevelDebug
	default:
		return log.LevelTrace
	}
}

func InitializeEthLog(logger *logrus.Entry) {
	log.SetDefault(log.NewLogger(&LogrusHandler{
		Logger: logger,
		Level:  toSlogLevel(logger.Logger.GetLevel()),
	}))
}

func (h *LogrusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Level.Level()
}

func (h *LogrusHandler) Handle(ctx context.Context, record slog.Record) error {
	// fatal would exit the process; crit records are logged as errors
	level := toLogrusLevel(record.Level)
	if level == logrus.FatalLevel {
		level = logrus.ErrorLevel
	}

	args := make(logrus.Fields, len(h.attrs)+record.NumAttrs())
	for k, v := range h.attrs {
		args[k] = v
	}
	record.Attrs(func(attr slog.Attr) bool {
		args[attr.Key] = attr.Value.Any()
		return true
	})

	h.Logger.
		WithContext(ctx).
		WithTime(record.Time).
		WithFields(args).
		Log(level, record.Message)
	return nil
}

func (h *LogrusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make(logrus.Fields, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		fields[k] = v
	}
	for _, attr := range attrs {
		fields[attr.Key] = attr.Value.Any()
	}
	return &LogrusHandler{
		Logger: h.Logger,
		Level:  h.Level,
		attrs:  fields,
	}
}

func (h *LogrusHandler) WithGroup(name string) slog.Handler {
	return &LogrusHandler{
		Logger: h.Logger,
		Level:  h.Level,
		attrs:  h.attrs,
	}
}
