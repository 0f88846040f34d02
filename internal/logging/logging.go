// Package logging writes one JSON object per line.
// Every entry carries ts, level and the caller's fields; entries with status "error"
// default to level "error".
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes JSON lines to one destination.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc. Nil arguments default
// to stdout and UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{out: w, loc: loc}
}

var std = New(os.Stdout, time.UTC)

// Default returns the process-wide logger.
func Default() *Logger { return std }

// Setup sets the destination and the timezone used for the ts field.
func Setup(w io.Writer, l *time.Location) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if w != nil {
		std.out = w
	}
	if l != nil {
		std.loc = l
	}
}

// Location returns the configured timezone.
func Location() *time.Location {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.loc
}

// Info writes an info-level entry.
func Info(msg string, fields map[string]any) { std.Info(msg, fields) }

// Warn writes a warn-level entry.
func Warn(msg string, fields map[string]any) { std.Warn(msg, fields) }

// Error writes an error-level entry.
func Error(msg string, fields map[string]any) { std.Error(msg, fields) }

// JSON writes data as is, adding ts and a level derived from data["status"].
func JSON(data map[string]any) { std.JSON(data) }

type requestIDKey struct{}

// WithRequestID returns ctx carrying the request id of the HTTP request being served.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// InfoCtx is Info with the request id from ctx attached.
func InfoCtx(ctx context.Context, msg string, fields map[string]any) {
	std.Info(msg, withRequestID(ctx, fields))
}

// WarnCtx is Warn with the request id from ctx attached.
func WarnCtx(ctx context.Context, msg string, fields map[string]any) {
	std.Warn(msg, withRequestID(ctx, fields))
}

// ErrorCtx is Error with the request id from ctx attached.
func ErrorCtx(ctx context.Context, msg string, fields map[string]any) {
	std.Error(msg, withRequestID(ctx, fields))
}

func withRequestID(ctx context.Context, fields map[string]any) map[string]any {
	id := RequestID(ctx)
	if id == "" {
		return fields
	}
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["request_id"] = id
	return out
}

func (l *Logger) Info(msg string, fields map[string]any)  { l.write("info", msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.write("warn", msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.write("error", msg, fields) }

func (l *Logger) JSON(data map[string]any) {
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	l.emit(data)
}

func (l *Logger) write(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["msg"] = msg
	l.emit(entry)
}

func (l *Logger) emit(entry map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if err, ok := entry["error"].(error); ok {
		entry["error"] = err.Error()
	}

	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.out, `{"ts":%q,"level":"error","msg":"logger marshal failed","error":%q}`+"\n",
			time.Now().In(l.loc).Format(time.RFC3339Nano), err.Error())
		return
	}
	fmt.Fprintln(l.out, string(b))
}
