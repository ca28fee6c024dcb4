package worker

import (
	"github.com/google/uuid"

	"github.com/TopChef/TopChefClient/pkg/cloudevent"
)

// Event types for job lifecycle callbacks.
const (
	EventTypeWorking   = "topchef.job.working"
	EventTypeCompleted = "topchef.job.completed"
	EventTypeFailed    = "topchef.job.failed"
)

const eventSource = "topchef/worker"

// eventBuilder builds CloudEvents for one service's job lifecycle.
type eventBuilder struct {
	serviceID string
}

func (b eventBuilder) build(eventType, jobID string, data map[string]any) *cloudevent.CloudEvent {
	if data == nil {
		data = map[string]any{}
	}
	data["jobId"] = jobID
	data["serviceId"] = b.serviceID
	return cloudevent.New(eventType, eventSource, jobID, uuid.NewString(), data)
}

func (b eventBuilder) working(jobID string) *cloudevent.CloudEvent {
	return b.build(EventTypeWorking, jobID, nil)
}

func (b eventBuilder) completed(jobID string, result any) *cloudevent.CloudEvent {
	return b.build(EventTypeCompleted, jobID, map[string]any{"result": result})
}

func (b eventBuilder) failed(jobID string, err error) *cloudevent.CloudEvent {
	return b.build(EventTypeFailed, jobID, map[string]any{"error": err.Error()})
}
