// Package job provides a mutable view over one job's server-side state.
package job

import (
	"context"

	"github.com/TopChef/TopChefClient/api"
	"github.com/TopChef/TopChefClient/apperrors"
)

// Handle is a transient projection of a single server-side job. Every read
// fetches fresh details and every write pushes the whole record back, so the
// handle never caches state across calls. Writes are read-modify-write round
// trips with no concurrency token; the server stays authoritative.
type Handle struct {
	gateway api.Gateway
	id      string
}

// NewHandle creates a handle for the job with the given id.
func NewHandle(gateway api.Gateway, id string) *Handle {
	return &Handle{gateway: gateway, id: id}
}

// ID returns the job id this handle is bound to.
func (h *Handle) ID() string {
	return h.id
}

// Details fetches the current server-side record.
func (h *Handle) Details(ctx context.Context) (*api.JobDetails, error) {
	return h.gateway.Job(ctx, h.id)
}

// Status fetches the current lifecycle status.
func (h *Handle) Status(ctx context.Context) (api.JobStatus, error) {
	details, err := h.gateway.Job(ctx, h.id)
	if err != nil {
		return "", err
	}
	return details.Status, nil
}

// SetStatus writes a new lifecycle status. Values outside the lifecycle
// vocabulary are rejected before any network round trip.
func (h *Handle) SetStatus(ctx context.Context, status api.JobStatus) error {
	if !status.Valid() {
		return apperrors.InvalidState(string(status))
	}

	details, err := h.gateway.Job(ctx, h.id)
	if err != nil {
		return err
	}
	details.Status = status
	return h.gateway.UpdateJob(ctx, h.id, details)
}

// Result fetches the current result. Nil until the job completes.
func (h *Handle) Result(ctx context.Context) (any, error) {
	details, err := h.gateway.Job(ctx, h.id)
	if err != nil {
		return nil, err
	}
	return details.Result, nil
}

// SetResult writes a new result. No schema validation happens here; callers
// are expected to have gated the value already.
func (h *Handle) SetResult(ctx context.Context, result any) error {
	details, err := h.gateway.Job(ctx, h.id)
	if err != nil {
		return err
	}
	details.Result = result
	return h.gateway.UpdateJob(ctx, h.id, details)
}

// Parameters fetches the job's submitted parameters.
func (h *Handle) Parameters(ctx context.Context) (any, error) {
	details, err := h.gateway.Job(ctx, h.id)
	if err != nil {
		return nil, err
	}
	return details.Parameters, nil
}

// IsComplete reports whether the job has reached COMPLETED.
func (h *Handle) IsComplete(ctx context.Context) (bool, error) {
	status, err := h.Status(ctx)
	if err != nil {
		return false, err
	}
	return status == api.StatusCompleted, nil
}
