// Package jsonlog writes one JSON object per line, the format every component
// of the service logs in.
package jsonlog

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Logger is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc}
}

// Log writes fields plus "ts", and "level" (info) when fields does not set one.
// fields is modified.
func (l *Logger) Log(fields map[string]any) {
	fields["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := fields["level"]; !ok {
		fields["level"] = "info"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(fields)
}

// Info logs msg at info level.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.Log(with(fields, "info", msg))
}

// Error logs msg at error level with err attached.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	f := with(fields, "error", msg)
	if err != nil {
		f["error"] = err.Error()
	}
	l.Log(f)
}

func with(fields map[string]any, level, msg string) map[string]any {
	f := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		f[k] = v
	}
	f["level"] = level
	f["msg"] = msg
	return f
}
