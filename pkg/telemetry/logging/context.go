package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// DispatchIDKey is the context key for dispatch ids.
	DispatchIDKey contextKey = "dispatch_id"

	// TaskKey is the context key for task labels.
	TaskKey contextKey = "task"
)

// WithDispatchID adds a dispatch id to the context.
func WithDispatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, DispatchIDKey, id)
}

// DispatchID retrieves the dispatch id from the context.
func DispatchID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(DispatchIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTask adds a task label to the context.
func WithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, TaskKey, task)
}

// Task retrieves the task label from the context.
func Task(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if task, ok := ctx.Value(TaskKey).(string); ok {
		return task
	}
	return ""
}
