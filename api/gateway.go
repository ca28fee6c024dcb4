// Package api defines the contract with the remote TopChef server and its
// HTTP implementation.
package api

import "context"

// JobStatus is the server-side lifecycle state of a job.
type JobStatus string

// Lifecycle states, in order. The server never moves a job backwards.
const (
	StatusRegistered JobStatus = "REGISTERED"
	StatusWorking    JobStatus = "WORKING"
	StatusCompleted  JobStatus = "COMPLETED"
)

// Valid reports whether s is part of the lifecycle vocabulary.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusWorking, StatusCompleted:
		return true
	default:
		return false
	}
}

// DefaultResultSchema matches any JSON object. Used when a service is
// registered without an explicit result schema.
func DefaultResultSchema() map[string]any {
	return map[string]any{"type": "object"}
}

// ServiceRegistration is the payload for creating a new service.
type ServiceRegistration struct {
	Name                  string `json:"name"`
	Description           string `json:"description"`
	JobRegistrationSchema any    `json:"job_registration_schema"`
	JobResultSchema       any    `json:"job_result_schema"`
}

// ServiceDetails is the server's representation of a registered service.
type ServiceDetails struct {
	ID                    string `json:"id"`
	Name                  string `json:"name,omitempty"`
	Description           string `json:"description,omitempty"`
	JobRegistrationSchema any    `json:"job_registration_schema"`
	JobResultSchema       any    `json:"job_result_schema"`
}

// JobDetails is the server's representation of a job. Updates PUT the whole
// record back, so every field round-trips.
type JobDetails struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Parameters any       `json:"parameters"`
	Result     any       `json:"result"`
}

// QueueEntry is one pending job in a service's queue.
type QueueEntry struct {
	ID string `json:"id"`
}

// Gateway is the transport seam to the remote server. Every method that can
// fail returns a network error (apperrors.ErrNetwork) for any status code
// outside the expected set for that endpoint.
type Gateway interface {
	// IsAlive reports whether a liveness probe against the server root succeeds.
	IsAlive(ctx context.Context) bool

	// CreateService registers a new service and returns its id.
	CreateService(ctx context.Context, reg ServiceRegistration) (string, error)

	// ServiceDetails fetches the details of a registered service.
	ServiceDetails(ctx context.Context, serviceID string) (*ServiceDetails, error)

	// CheckIn signals the server that a worker is bound to the service.
	CheckIn(ctx context.Context, serviceID string) error

	// Queue fetches the pending jobs for a service, head first.
	Queue(ctx context.Context, serviceID string) ([]QueueEntry, error)

	// Job fetches the details of a single job.
	Job(ctx context.Context, jobID string) (*JobDetails, error)

	// UpdateJob replaces the server-side job record.
	UpdateJob(ctx context.Context, jobID string, details *JobDetails) error

	// CreateJob submits parameters as a new job against a service and
	// returns the new job's id.
	CreateJob(ctx context.Context, serviceID string, parameters any) (string, error)

	// Validate asks the server whether instance matches schema. A definitive
	// no-match is (false, nil), not an error.
	Validate(ctx context.Context, instance, schema any) (bool, error)
}
