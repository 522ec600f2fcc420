package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var log = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Init configures the package logger. JSON output is used outside development.
func Init() {
	InitWithEnv(os.Getenv("APP_ENV"))
}

func InitWithEnv(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "" || env == "development" {
		opts.Level = slog.LevelDebug
		log = New(slog.NewTextHandler(os.Stdout, opts))
	} else {
		log = New(NewJSONHandler(os.Stdout, opts))
	}
	slog.SetDefault(log)
}

func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

// Set replaces the package logger and returns the previous one.
func Set(l *slog.Logger) *slog.Logger {
	prev := log
	log = l
	return prev
}

// Log writes msg at an explicit level.
func Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	log.Log(ctx, level, msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Infof(format string, v ...any) {
	log.Info(fmt.Sprintf(format, v...))
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Warnf(format string, v ...any) {
	log.Warn(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Errorf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

// WithError returns a child logger carrying the error under the "error" key.
func WithError(err error) *slog.Logger {
	return log.With("error", err)
}

func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}
