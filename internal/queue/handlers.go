package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	mux := asynq.NewServeMux()
	mux.Use(logTasks)
	return &HandlersRegistry{mux: mux}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func logTasks(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		if err != nil {
			slog.Error("task failed", "type", t.Type(), "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return err
		}
		slog.Debug("task done", "type", t.Type(), "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
}

// Logger routes asynq's own logging through slog.
type Logger struct {
	l *slog.Logger
}

func NewLogger(l *slog.Logger) *Logger {
	return &Logger{l: l.With("component", "asynq")}
}

func (l *Logger) Debug(args ...interface{}) { l.l.Debug(fmt.Sprint(args...)) }
func (l *Logger) Info(args ...interface{})  { l.l.Info(fmt.Sprint(args...)) }
func (l *Logger) Warn(args ...interface{})  { l.l.Warn(fmt.Sprint(args...)) }
func (l *Logger) Error(args ...interface{}) { l.l.Error(fmt.Sprint(args...)) }
func (l *Logger) Fatal(args ...interface{}) {
	l.l.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}
