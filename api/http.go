package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/TopChef/TopChefClient/apperrors"
)

const contentTypeJSON = "application/json"

// HTTPGateway talks to a TopChef server over HTTP.
type HTTPGateway struct {
	address string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPGateway creates a gateway for the server at address with standard
// transport settings. The address is the server root, without a trailing slash.
func NewHTTPGateway(address string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		address: address,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.With("component", "gateway"),
	}
}

// Address returns the server root this gateway is bound to.
func (g *HTTPGateway) Address() string {
	return g.address
}

// IsAlive reports whether GET on the server root returns 200.
// Transport failures count as not alive.
func (g *HTTPGateway) IsAlive(ctx context.Context) bool {
	resp, err := g.do(ctx, http.MethodGet, g.address, nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// CreateService POSTs a service registration and returns the new service id.
func (g *HTTPGateway) CreateService(ctx context.Context, reg ServiceRegistration) (string, error) {
	endpoint := g.address + "/services"
	resp, err := g.do(ctx, http.MethodPost, endpoint, reg)
	if err != nil {
		return "", apperrors.Transport(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", apperrors.Network(endpoint, resp.StatusCode)
	}

	var body struct {
		Data struct {
			ServiceDetails struct {
				ID string `json:"id"`
			} `json:"service_details"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperrors.Transport(endpoint, err)
	}
	return body.Data.ServiceDetails.ID, nil
}

// ServiceDetails GETs the service record.
func (g *HTTPGateway) ServiceDetails(ctx context.Context, serviceID string) (*ServiceDetails, error) {
	endpoint := fmt.Sprintf("%s/services/%s", g.address, serviceID)
	var details ServiceDetails
	if err := g.getData(ctx, endpoint, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// CheckIn PATCHes the service record to signal a bound worker.
func (g *HTTPGateway) CheckIn(ctx context.Context, serviceID string) error {
	endpoint := fmt.Sprintf("%s/services/%s", g.address, serviceID)
	resp, err := g.do(ctx, http.MethodPatch, endpoint, nil)
	if err != nil {
		return apperrors.Transport(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Network(endpoint, resp.StatusCode)
	}
	return nil
}

// Queue GETs the pending jobs for a service.
func (g *HTTPGateway) Queue(ctx context.Context, serviceID string) ([]QueueEntry, error) {
	endpoint := fmt.Sprintf("%s/services/%s/queue", g.address, serviceID)
	var entries []QueueEntry
	if err := g.getData(ctx, endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Job GETs a single job record.
func (g *HTTPGateway) Job(ctx context.Context, jobID string) (*JobDetails, error) {
	endpoint := fmt.Sprintf("%s/jobs/%s", g.address, jobID)
	var details JobDetails
	if err := g.getData(ctx, endpoint, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// UpdateJob PUTs the whole job record back.
func (g *HTTPGateway) UpdateJob(ctx context.Context, jobID string, details *JobDetails) error {
	endpoint := fmt.Sprintf("%s/jobs/%s", g.address, jobID)
	resp, err := g.do(ctx, http.MethodPut, endpoint, details)
	if err != nil {
		return apperrors.Transport(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Network(endpoint, resp.StatusCode)
	}
	return nil
}

// CreateJob POSTs parameters as a new job and returns the new job id.
func (g *HTTPGateway) CreateJob(ctx context.Context, serviceID string, parameters any) (string, error) {
	endpoint := fmt.Sprintf("%s/services/%s/jobs", g.address, serviceID)
	payload := map[string]any{"parameters": parameters}
	resp, err := g.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", apperrors.Transport(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", apperrors.Network(endpoint, resp.StatusCode)
	}

	var body struct {
		Data struct {
			JobDetails struct {
				ID string `json:"id"`
			} `json:"job_details"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperrors.Transport(endpoint, err)
	}
	return body.Data.JobDetails.ID, nil
}

// Validate POSTs an instance/schema pair to the server's validator.
// 200 is a match, 400 is a definitive no-match; anything else is a network
// error. The structured error payload on a 400 is logged for diagnosis.
func (g *HTTPGateway) Validate(ctx context.Context, instance, schema any) (bool, error) {
	endpoint := g.address + "/validator"
	payload := map[string]any{"object": instance, "schema": schema}
	resp, err := g.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return false, apperrors.Transport(endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusBadRequest:
		var body struct {
			Errors struct {
				Message string `json:"message"`
				Context any    `json:"context"`
			} `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Errors.Message != "" {
			g.logger.Debug("Validator reported mismatch",
				"message", body.Errors.Message,
				"context", fmt.Sprint(body.Errors.Context),
			)
		}
		return false, nil
	default:
		return false, apperrors.Network(endpoint, resp.StatusCode)
	}
}

// getData GETs an endpoint, expects 200, and decodes the "data" envelope
// into out.
func (g *HTTPGateway) getData(ctx context.Context, endpoint string, out any) error {
	resp, err := g.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Transport(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.Network(endpoint, resp.StatusCode)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apperrors.Transport(endpoint, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.Transport(endpoint, err)
	}
	return nil
}

// do performs one HTTP round trip with a JSON body when payload is non-nil.
func (g *HTTPGateway) do(ctx context.Context, method, endpoint string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	return g.client.Do(req)
}

// Verify HTTPGateway implements Gateway
var _ Gateway = (*HTTPGateway)(nil)
