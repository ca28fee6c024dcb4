package worker

import "context"

// Task is the user-supplied capability executed against each job. The
// parameters passed to Run are guaranteed to satisfy the service's job
// registration schema; producing a result that satisfies the result schema
// is the implementation's responsibility.
type Task interface {
	Run(ctx context.Context, parameters any) (any, error)
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func(ctx context.Context, parameters any) (any, error)

// Run calls f.
func (f TaskFunc) Run(ctx context.Context, parameters any) (any, error) {
	return f(ctx, parameters)
}
