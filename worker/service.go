package worker

import (
	"context"
	"log/slog"

	"github.com/TopChef/TopChefClient/api"
)

// NewService registers a new service with the server and returns a worker
// bound to it. A nil resultSchema registers the schema matching any object.
// Any registration status other than 201 fails with a network error and no
// worker is constructed.
func NewService(ctx context.Context, address, name, description string,
	registrationSchema, resultSchema any, task Task, opts ...Option) (*Worker, error) {

	if resultSchema == nil {
		resultSchema = api.DefaultResultSchema()
	}

	w := New(address, "", task, opts...)
	id, err := w.gateway.CreateService(ctx, api.ServiceRegistration{
		Name:                  name,
		Description:           description,
		JobRegistrationSchema: registrationSchema,
		JobResultSchema:       resultSchema,
	})
	if err != nil {
		return nil, err
	}

	w.serviceID = id
	w.logger = slog.With("component", "worker", "serviceId", id)
	w.logger.Info("Service registered", "name", name)
	return w, nil
}
