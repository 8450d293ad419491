package analysis

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

const component = "analysis"

// Doer is the transport the client sends calls through.
type Doer interface {
	Do(ctx context.Context, call studioapi.Call, out any) error
}

// Client talks to the hit-potential meter endpoints.
type Client struct {
	api    Doer
	logger *slog.Logger
}

// NewClient wraps a studio API transport.
func NewClient(api Doer, logger *slog.Logger) *Client {
	return &Client{api: api, logger: logging.NewComponentLogger(logger, component)}
}

// Analyze requests a fresh report for trackID. A blank id is refused with a
// validation error before any network call.
func (c *Client) Analyze(ctx context.Context, trackID string) (Report, error) {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return Report{}, services.Wrap(services.ErrValidation, component, "analyze", "track id is required", nil)
	}

	var report Report
	err := c.api.Do(ctx, studioapi.Call{
		Component: component,
		Operation: "analyze",
		Method:    http.MethodPost,
		Path:      "/api/meter/analyze",
		Payload:   map[string]string{"track_id": trackID},
	}, &report)
	if err != nil {
		return Report{}, err
	}
	if report.TrackID == "" {
		report.TrackID = trackID
	}
	if report.CategoryScores == nil {
		report.CategoryScores = map[string]float64{}
	}

	c.logger.Info("analysis received",
		logging.String(logging.FieldTrackID, trackID),
		logging.Float64("overall_score", report.OverallScore),
		logging.String("tier", report.Tier().Label),
	)
	return report, nil
}

// History lists earlier analyses of trackID, newest first.
func (c *Client) History(ctx context.Context, trackID string) ([]HistoryEntry, error) {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return nil, services.Wrap(services.ErrValidation, component, "history", "track id is required", nil)
	}
	var resp struct {
		Scores []HistoryEntry `json:"scores"`
	}
	err := c.api.Do(ctx, studioapi.Call{
		Component: component,
		Operation: "history",
		Path:      "/api/meter/history/" + url.PathEscape(trackID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Scores, nil
}

// Benchmarks fetches the backend's scoring thresholds and weights.
func (c *Client) Benchmarks(ctx context.Context) (Benchmarks, error) {
	var out Benchmarks
	err := c.api.Do(ctx, studioapi.Call{
		Component: component,
		Operation: "benchmarks",
		Path:      "/api/meter/benchmarks",
	}, &out)
	return out, err
}
