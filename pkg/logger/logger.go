// Package logger is the structured logger used by command and query handlers.
// It sits on log/slog so application and infrastructure code write through
// one handler, with typed field helpers for the hifz vocabulary.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Level is a slog level; the aliases keep call sites short.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel accepts debug, info, warn/warning and error in any case.
// Anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Field is one key/value pair on a log line.
type Field = slog.Attr

func F(key string, value any) Field              { return slog.Any(key, value) }
func String(key, value string) Field             { return slog.String(key, value) }
func Int(key string, value int) Field            { return slog.Int(key, value) }
func Float64(key string, value float64) Field    { return slog.Float64(key, value) }
func Any(key string, value any) Field            { return slog.Any(key, value) }
func Duration(key string, d time.Duration) Field { return slog.Duration(key, d) }

// Date logs a calendar day without its clock part.
func Date(key string, day time.Time) Field {
	return slog.String(key, day.Format("2006-01-02"))
}

// Err logs under "error"; a nil error is dropped by the handler.
func Err(err error) Field {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

func LearnerID(id string) Field     { return String("learner_id", id) }
func Unit(n int) Field              { return Int("unit", n) }
func RecordDate(d time.Time) Field  { return Date("record_date", d) }
func Attendance(a string) Field     { return String("attendance", a) }
func EventType(t string) Field      { return String("event_type", t) }
func Count(n int) Field             { return Int("count", n) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Warnings(items []string) Field { return Any("warnings", items) }

// Options selects the output of New.
type Options struct {
	Output    io.Writer // stderr when nil
	Level     Level
	Format    Format // json when empty
	AddSource bool
}

// NewHandler builds the slog handler described by opts.
func NewHandler(opts Options) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	if opts.Format == FormatText {
		return slog.NewTextHandler(opts.Output, ho)
	}
	return slog.NewJSONHandler(opts.Output, ho)
}

// Logger writes typed fields through a slog.Handler.
type Logger struct {
	h slog.Handler
}

func New(opts Options) *Logger {
	return &Logger{h: NewHandler(opts)}
}

// FromSlog shares the handler, and so the output and level, of l.
func FromSlog(l *slog.Logger) *Logger {
	return &Logger{h: l.Handler()}
}

// Default follows slog.Default at the time of the call.
func Default() *Logger {
	return FromSlog(slog.Default())
}

func Discard() *Logger {
	return New(Options{Output: io.Discard, Level: LevelError + 4})
}

// Slog exposes the same handler to code that takes a *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(l.h)
}

// With returns a child logger; l is not modified.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{h: l.h.WithAttrs(fields)}
}

func (l *Logger) Enabled(level Level) bool {
	return l.h.Enabled(context.Background(), level)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	ctx := context.Background()
	if !l.h.Enabled(ctx, level) {
		return
	}
	// Skip runtime.Callers, log and the level method.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(fields...)
	_ = l.h.Handle(ctx, r)
}

type ctxKey struct{}

func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext falls back to Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}
