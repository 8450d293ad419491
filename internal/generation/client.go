package generation

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"hitstudio/internal/logging"
	"hitstudio/internal/services"
	"hitstudio/internal/services/studioapi"
)

const component = "generation"

// Job is the backend's acknowledgement of a submission.
type Job struct {
	JobID         string `json:"job_id"`
	State         State  `json:"state"`
	EstimatedTime int    `json:"estimated_time"`
	Message       string `json:"message,omitempty"`
}

// Model describes one entry of the backend's model catalog.
type Model struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	MaxDuration         int    `json:"max_duration"`
	RecommendedDuration string `json:"recommended_duration"`
	Speed               string `json:"speed"`
}

// Doer is the transport the client sends calls through.
type Doer interface {
	Do(ctx context.Context, call studioapi.Call, out any) error
}

// Client talks to the song generation endpoints.
type Client struct {
	api    Doer
	logger *slog.Logger
}

// NewClient wraps a studio API transport.
func NewClient(api Doer, logger *slog.Logger) *Client {
	return &Client{api: api, logger: logging.NewComponentLogger(logger, component)}
}

type createResponse struct {
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	EstimatedTime *int   `json:"estimated_time"`
	Message       string `json:"message"`
}

// Create submits a validated request. Invalid requests are refused with a
// validation error and never reach the network.
func (c *Client) Create(ctx context.Context, req Request) (Job, error) {
	if err := req.Validate(); err != nil {
		return Job{}, err
	}
	req = req.Normalized()

	var resp createResponse
	err := c.api.Do(ctx, studioapi.Call{
		Component: component,
		Operation: "create",
		Method:    http.MethodPost,
		Path:      "/api/songgen/generate",
		Payload:   req,
	}, &resp)
	if err != nil {
		return Job{}, err
	}

	jobID := strings.TrimSpace(resp.TaskID)
	if jobID == "" {
		return Job{}, services.Wrap(services.ErrTransport, component, "create", "response missing task_id", nil)
	}
	state := StateQueued
	if resp.Status != "" {
		parsed, err := ParseState(resp.Status)
		if err != nil {
			return Job{}, services.Wrap(services.ErrTransport, component, "create", "decode status", err)
		}
		state = parsed
	}
	estimate := EstimatedTime(req.Duration)
	if resp.EstimatedTime != nil && *resp.EstimatedTime > 0 {
		estimate = *resp.EstimatedTime
	}

	c.logger.Info("generation submitted",
		logging.String(logging.FieldJobID, jobID),
		logging.String("model", req.Model),
		logging.Int("duration", req.Duration),
		logging.Int("estimated_seconds", estimate),
	)
	return Job{JobID: jobID, State: state, EstimatedTime: estimate, Message: resp.Message}, nil
}

type statusResponse struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Result   *struct {
		TrackID  string `json:"track_id"`
		AudioURL string `json:"audio_url"`
	} `json:"result"`
	Error string `json:"error"`
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (Status, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Status{}, services.Wrap(services.ErrValidation, component, "status", "job id is required", nil)
	}

	var resp statusResponse
	err := c.api.Do(ctx, studioapi.Call{
		Component: component,
		Operation: "status",
		Path:      "/api/songgen/status/" + url.PathEscape(jobID),
	}, &resp)
	if err != nil {
		return Status{}, err
	}

	state, err := ParseState(resp.Status)
	if err != nil {
		return Status{}, services.Wrap(services.ErrTransport, component, "status", "decode status", err)
	}
	status := Status{
		JobID:        jobID,
		State:        state,
		Progress:     ClampProgress(resp.Progress),
		Message:      strings.TrimSpace(resp.Message),
		ErrorMessage: strings.TrimSpace(resp.Error),
	}
	if resp.Result != nil {
		status.TrackID = strings.TrimSpace(resp.Result.TrackID)
		status.AudioURL = strings.TrimSpace(resp.Result.AudioURL)
	}
	if state == StateSucceeded {
		if status.TrackID == "" {
			return Status{}, services.Wrap(services.ErrTransport, component, "status", "succeeded job has no track_id", nil)
		}
		status.Progress = 100
	}
	return status, nil
}

// Models lists the backend's model catalog.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	var resp struct {
		Models []Model `json:"models"`
	}
	err := c.api.Do(ctx, studioapi.Call{
		Component: component,
		Operation: "models",
		Path:      "/api/songgen/models",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}
