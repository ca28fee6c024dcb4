// Package worker turns a registered TopChef service into a live job
// executor: it polls the server for pending jobs, runs the user task against
// each job's parameters, gates inputs and outputs through schema validation,
// and reports results back.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TopChef/TopChefClient/api"
	"github.com/TopChef/TopChefClient/apperrors"
	"github.com/TopChef/TopChefClient/dispatcher"
	"github.com/TopChef/TopChefClient/internal/observability"
	"github.com/TopChef/TopChefClient/job"
	"github.com/TopChef/TopChefClient/pkg/circuitbreaker"
	"github.com/TopChef/TopChefClient/pkg/cloudevent"
	"github.com/TopChef/TopChefClient/schema"
)

// UnresolvedJobHandler is notified when a job had to be abandoned
// mid-lifecycle: its input or output failed validation, or the task itself
// failed. The server has no FAILED status, so the job stays where it was
// (REGISTERED or WORKING) and someone has to look at it.
type UnresolvedJobHandler func(jobID string, err error)

// Worker binds a task to one service and drives two loops against the
// server: a polling loop that checks in periodically, and a processing loop
// that executes queued jobs one at a time. Both loops run until the server
// stops answering its liveness probe or the start context is cancelled.
type Worker struct {
	address         string
	serviceID       string
	checkinInterval time.Duration
	idleInterval    time.Duration
	pollingDisabled bool

	gateway    api.Gateway
	validator  *schema.Validator
	task       Task
	events     dispatcher.Dispatcher
	listeners  []string
	signingKey string
	metrics    *observability.Metrics
	unresolved UnresolvedJobHandler

	checkinBreaker *circuitbreaker.Breaker
	logger         *slog.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
}

// Option customizes a Worker at construction.
type Option func(*Worker)

// WithGateway replaces the default HTTP gateway. The seam every test uses.
func WithGateway(gateway api.Gateway) Option {
	return func(w *Worker) { w.gateway = gateway }
}

// WithValidatorStrategy replaces the default remote validation strategy.
func WithValidatorStrategy(strategy schema.Strategy) Option {
	return func(w *Worker) { w.validator = schema.NewValidator(strategy) }
}

// WithCheckinInterval sets the wait between checkins (default: 30s).
func WithCheckinInterval(d time.Duration) Option {
	return func(w *Worker) { w.checkinInterval = d }
}

// WithIdleInterval sets the wait between queue probes when the queue is
// empty. Zero, the default, re-probes immediately.
func WithIdleInterval(d time.Duration) Option {
	return func(w *Worker) { w.idleInterval = d }
}

// WithoutPolling suppresses the checkin loop; only the processing loop runs.
func WithoutPolling() Option {
	return func(w *Worker) { w.pollingDisabled = true }
}

// WithMetrics attaches worker metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithListeners attaches lifecycle event listeners. Events are delivered
// asynchronously through d and signed with signingKey when non-empty.
func WithListeners(d dispatcher.Dispatcher, urls []string, signingKey string) Option {
	return func(w *Worker) {
		w.events = d
		w.listeners = urls
		w.signingKey = signingKey
	}
}

// WithUnresolvedJobHandler replaces the default unresolved-job handler
// (a structured error log).
func WithUnresolvedJobHandler(fn UnresolvedJobHandler) Option {
	return func(w *Worker) { w.unresolved = fn }
}

// New creates a worker bound to an already-registered service.
func New(address, serviceID string, task Task, opts ...Option) *Worker {
	w := &Worker{
		address:         address,
		serviceID:       serviceID,
		checkinInterval: 30 * time.Second,
		task:            task,
		checkinBreaker:  circuitbreaker.New(circuitbreaker.Config{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.gateway == nil {
		w.gateway = api.NewHTTPGateway(address, 30*time.Second)
	}
	if w.validator == nil {
		w.validator = schema.NewValidator(schema.NewRemoteStrategy(w.gateway))
	}
	w.logger = slog.With("component", "worker", "serviceId", w.serviceID)
	return w
}

// ServiceID returns the id of the bound service.
func (w *Worker) ServiceID() string {
	return w.serviceID
}

// Start launches the loops. They exit when ctx is cancelled or the server
// stops answering its liveness probe; Wait blocks until then.
func (w *Worker) Start(ctx context.Context) error {
	if w.started.Swap(true) {
		return errors.New("worker already started")
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.processingLoop(ctx)

	if !w.pollingDisabled {
		w.wg.Add(1)
		go w.pollingLoop(ctx)
	}

	w.logger.Info("Worker started", "address", w.address, "polling", !w.pollingDisabled)
	return nil
}

// Stop cancels both loops and waits for them to exit.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Wait blocks until both loops have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// pollingLoop checks in with the server every checkinInterval so the server
// knows a worker is bound to the service. Checkin failures never escape the
// loop; a breaker stops the hammering while the endpoint is persistently
// failing.
func (w *Worker) pollingLoop(ctx context.Context) {
	defer w.wg.Done()
	logger := w.logger.With("loop", "polling")

	for ctx.Err() == nil && w.gateway.IsAlive(ctx) {
		if w.checkinBreaker.Allow() {
			err := w.gateway.CheckIn(ctx, w.serviceID)
			if w.metrics != nil {
				w.metrics.RecordCheckin(ctx, err == nil)
			}
			if err != nil {
				w.checkinBreaker.RecordFailure()
				logger.Warn("Checkin failed", "error", err)
			} else {
				w.checkinBreaker.RecordSuccess()
			}
		}

		if !sleepCtx(ctx, w.checkinInterval) {
			return
		}
	}
	logger.Info("Polling loop exiting")
}

// processingLoop drains the queue one job at a time. Per-job processing
// errors are reported through the unresolved handler and the loop moves on;
// network errors are logged and the next pass re-probes liveness.
func (w *Worker) processingLoop(ctx context.Context) {
	defer w.wg.Done()
	logger := w.logger.With("loop", "processing")

	for ctx.Err() == nil && w.gateway.IsAlive(ctx) {
		empty, err := w.isQueueEmpty(ctx)
		if err != nil {
			logger.Warn("Queue probe failed", "error", err)
			if !sleepCtx(ctx, w.idleInterval) {
				return
			}
			continue
		}
		if empty {
			// Default is an immediate re-probe; idleInterval softens it.
			if !sleepCtx(ctx, w.idleInterval) {
				return
			}
			continue
		}

		jobID, err := w.runIteration(ctx)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrProcessing), errors.Is(err, apperrors.ErrValidation):
			w.reportUnresolved(ctx, jobID, err)
		default:
			logger.Error("Iteration failed", "jobId", jobID, "error", err)
		}
	}
	logger.Info("Processing loop exiting")
}

// RunIteration runs a single pass of the processing state machine. Exposed
// so the loop can be embedded in a larger scheduling system.
func (w *Worker) RunIteration(ctx context.Context) error {
	_, err := w.runIteration(ctx)
	return err
}

// runIteration is one full state-machine pass: acquire the head job,
// validate its parameters, mark it WORKING, run the task, validate the
// result, then write result and COMPLETED status back. The five transitions
// happen strictly in this order and never overlap with another job.
func (w *Worker) runIteration(ctx context.Context) (jobID string, err error) {
	entries, err := w.gateway.Queue(ctx, w.serviceID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	handle := job.NewHandle(w.gateway, entries[0].ID)
	jobID = handle.ID()
	logger := w.logger.With("jobId", jobID)

	details, err := handle.Details(ctx)
	if err != nil {
		return jobID, err
	}

	registrationSchema, err := w.registrationSchema(ctx)
	if err != nil {
		return jobID, err
	}
	if err := w.validator.AssertMatches(ctx, details.Parameters, registrationSchema); err != nil {
		// The job's server-side status is deliberately untouched here, so it
		// stays visible for retry or inspection.
		return jobID, fmt.Errorf("job %s parameters rejected: %w", jobID, err)
	}

	if err := handle.SetStatus(ctx, api.StatusWorking); err != nil {
		return jobID, err
	}
	w.emit(w.builder().working(jobID))

	start := time.Now()
	result, err := w.task.Run(ctx, details.Parameters)
	if err != nil {
		return jobID, apperrors.ProcessingCause(fmt.Sprintf("task failed for job %s", jobID), err)
	}

	resultSchema, err := w.resultSchema(ctx)
	if err != nil {
		return jobID, err
	}
	if err := w.validator.AssertMatches(ctx, result, resultSchema); err != nil {
		return jobID, fmt.Errorf("job %s result rejected: %w", jobID, err)
	}

	if err := handle.SetResult(ctx, result); err != nil {
		return jobID, err
	}
	if err := handle.SetStatus(ctx, api.StatusCompleted); err != nil {
		return jobID, err
	}

	if w.metrics != nil {
		w.metrics.RecordJobCompleted(ctx, w.serviceID, time.Since(start).Seconds())
	}
	w.emit(w.builder().completed(jobID, result))
	logger.Info("Job completed", "duration", time.Since(start))
	return jobID, nil
}

// isQueueEmpty probes the service's queue.
func (w *Worker) isQueueEmpty(ctx context.Context) (bool, error) {
	entries, err := w.gateway.Queue(ctx, w.serviceID)
	if err != nil {
		return false, err
	}
	empty := len(entries) == 0
	if w.metrics != nil {
		w.metrics.RecordQueuePoll(ctx, empty)
	}
	return empty, nil
}

// registrationSchema fetches the service's job registration schema. Fetched
// per access, never cached across polls.
func (w *Worker) registrationSchema(ctx context.Context) (any, error) {
	details, err := w.gateway.ServiceDetails(ctx, w.serviceID)
	if err != nil {
		return nil, err
	}
	return details.JobRegistrationSchema, nil
}

// resultSchema fetches the service's job result schema.
func (w *Worker) resultSchema(ctx context.Context) (any, error) {
	details, err := w.gateway.ServiceDetails(ctx, w.serviceID)
	if err != nil {
		return nil, err
	}
	return details.JobResultSchema, nil
}

func (w *Worker) reportUnresolved(ctx context.Context, jobID string, err error) {
	if w.metrics != nil {
		w.metrics.RecordJobUnresolved(ctx, w.serviceID)
	}
	if jobID != "" {
		w.emit(w.builder().failed(jobID, err))
	}
	if w.unresolved != nil {
		w.unresolved(jobID, err)
		return
	}
	w.logger.Error("Job left unresolved", "jobId", jobID, "error", err)
}

func (w *Worker) builder() eventBuilder {
	return eventBuilder{serviceID: w.serviceID}
}

// emit queues event for every configured listener. Delivery problems are the
// dispatcher's to report; job processing never blocks on them.
func (w *Worker) emit(event *cloudevent.CloudEvent) {
	if w.events == nil {
		return
	}
	for _, url := range w.listeners {
		_ = w.events.Dispatch(&dispatcher.Event{
			Payload:     event,
			Destination: url,
			SigningKey:  w.signingKey,
		})
	}
}

// sleepCtx waits for d unless ctx is cancelled first. Returns false when the
// wait was interrupted. A non-positive d only checks for cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
