// Package logger provides request-scoped structured logging on top of
// logrus, matching the field names and call shapes used throughout the
// handler and pipeline layers.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var root = logrus.New()

func init() {
	root.SetFormatter(&logrus.JSONFormatter{})
}

// WithContext seeds ctx with a logger carrying a requestID field pulled
// from gin middleware. Call once per inbound request.
func WithContext(ctx context.Context, requestID string) context.Context {
	entry := root.WithField("requestID", requestID)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// WithConversation attaches a convId field to the logger already in ctx.
func WithConversation(ctx context.Context, convID string) context.Context {
	entry := GetLogger(ctx).WithField("convId", convID)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// GetLogger returns the *logrus.Entry stored in ctx, or a bare root entry
// if none was seeded.
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(root)
}

// CloneContext detaches the logger currently in ctx onto context.Background,
// for use by goroutines that must outlive the originating request context
// (SSE streaming producers, background hierarchical-processing jobs).
func CloneContext(ctx context.Context) context.Context {
	return context.WithValue(context.Background(), ctxKey{}, GetLogger(ctx))
}

func fieldsArgs(kv []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

// Info logs at info level, with optional trailing key/value pairs.
func Info(ctx context.Context, msg string, kv ...any) {
	GetLogger(ctx).WithFields(fieldsArgs(kv)).Info(msg)
}

// Infof logs a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Infof(format, args...)
}

// Warn logs at warn level, with optional trailing key/value pairs.
func Warn(ctx context.Context, msg string, kv ...any) {
	GetLogger(ctx).WithFields(fieldsArgs(kv)).Warn(msg)
}

// Warnf logs a formatted message at warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Warnf(format, args...)
}

// Error logs at error level, with optional trailing key/value pairs.
func Error(ctx context.Context, msg string, kv ...any) {
	GetLogger(ctx).WithFields(fieldsArgs(kv)).Error(msg)
}

// Errorf logs a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Errorf(format, args...)
}

// ErrorWithFields logs err at error level along with extra structured
// fields, the shape used by handlers right before translating err into
// an AppError response.
func ErrorWithFields(ctx context.Context, err error, fields map[string]any) {
	entry := GetLogger(ctx).WithField("error", err.Error())
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	entry.Error("request failed")
}

// Pipeline logs a pipeline-stage event carrying stage/action fields, the
// convention followed by the orchestrator and hierarchical processor.
func Pipeline(ctx context.Context, stage, action, msg string) {
	GetLogger(ctx).WithFields(logrus.Fields{"stage": stage, "action": action}).Info(msg)
}

// PipelineError logs a pipeline-stage failure carrying stage/action fields.
func PipelineError(ctx context.Context, stage, action string, err error) {
	GetLogger(ctx).WithFields(logrus.Fields{"stage": stage, "action": action, "error": err.Error()}).Error("pipeline stage failed")
}
