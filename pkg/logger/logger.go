package logger

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled structured logger used by the service.
// - backed by zap, one JSON line per record on stdout
// - field names follow Cloud Logging (severity, message, timestamp)
// - explicitly constructed and passed around; there is no package-level instance

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Fields is an open-ended set of named values attached to a record.
type Fields map[string]interface{}

// TraceKey is the field Cloud Logging uses to correlate records with a request trace.
const TraceKey = "logging.googleapis.com/trace"

// Config controls how New builds a Logger.
type Config struct {
	Level string
	// FlushInterval > 0 buffers output and flushes it at least this often.
	// Zero writes every record straight through.
	FlushInterval time.Duration
	// Output defaults to os.Stdout.
	Output io.Writer
}

type Logger struct {
	z        *zap.Logger
	buffered *zapcore.BufferedWriteSyncer
}

// ParseLevel maps text to a Level (case-insensitive: debug, info, warn, error).
// Unknown input yields LevelInfo.
func ParseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the level as text.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	ws := zapcore.AddSync(out)
	var buffered *zapcore.BufferedWriteSyncer
	if cfg.FlushInterval > 0 {
		buffered = &zapcore.BufferedWriteSyncer{WS: ws, FlushInterval: cfg.FlushInterval}
		ws = buffered
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(ws), ParseLevel(cfg.Level).zap())
	// write failures go to stderr through zap's error output and never reach callers
	z := zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	return &Logger{z: z, buffered: buffered}, nil
}

// NewWithWriter returns an unbuffered Logger writing to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	l, _ := New(Config{Level: level, Output: w})
	return l
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "severity",
		NameKey:        "logger",
		MessageKey:     "message",
		StacktraceKey:  "stack_trace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeSeverity,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// encodeSeverity writes Cloud Logging severity names.
func encodeSeverity(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case zapcore.InfoLevel:
		enc.AppendString("INFO")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	case zapcore.ErrorLevel:
		enc.AppendString("ERROR")
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		enc.AppendString("ALERT")
	default:
		enc.AppendString("EMERGENCY")
	}
}

func toZap(fields []Fields) []zap.Field {
	n := 0
	for _, f := range fields {
		n += len(f)
	}
	if n == 0 {
		return nil
	}
	out := make([]zap.Field, 0, n)
	for _, f := range fields {
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, zap.Any(k, f[k]))
		}
	}
	return out
}

// Log writes one record at the given level.
func (l *Logger) Log(level Level, msg string, fields ...Fields) {
	if ce := l.z.Check(level.zap(), msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.Log(LevelDebug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.Log(LevelInfo, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.Log(LevelWarn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Fields) { l.Log(LevelError, msg, fields...) }

// With returns a child logger that adds fields to every record.
// Children share the parent's sink, so flushing either flushes both.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{z: l.z.With(toZap([]Fields{fields})...), buffered: l.buffered}
}

// Flush blocks until buffered records have been handed to the sink.
// Errors are dropped: stdout commonly refuses fsync and that must not surface.
func (l *Logger) Flush() {
	_ = l.z.Sync()
}

// Close flushes and stops the background flusher, if any.
func (l *Logger) Close() {
	l.Flush()
	if l.buffered != nil {
		_ = l.buffered.Stop()
	}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger { return l.z }
