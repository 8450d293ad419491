package generation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"hitstudio/internal/services"
)

// Models accepted by the backend.
const (
	ModelSmall  = "musicgen-small"
	ModelMedium = "musicgen-medium"
	ModelLarge  = "musicgen-large"
)

const (
	// MaxPromptLength is measured in characters, not bytes.
	MaxPromptLength    = 500
	DefaultTemperature = 1.0
	MinTemperature     = 0.5
	MaxTemperature     = 1.5
)

var (
	supportedDurations = []int{15, 30, 60, 120, 180}
	supportedModels    = []string{ModelSmall, ModelMedium, ModelLarge}
)

// Durations returns the accepted track lengths in seconds.
func Durations() []int {
	return slices.Clone(supportedDurations)
}

// SupportedModels returns the accepted model identifiers.
func SupportedModels() []string {
	return slices.Clone(supportedModels)
}

// Request is a single generation submission.
type Request struct {
	Prompt      string  `json:"prompt"`
	Duration    int     `json:"duration"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// Normalized returns a copy with surrounding whitespace trimmed, the model
// lower-cased, and a zero temperature replaced by the default.
func (r Request) Normalized() Request {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Model = strings.ToLower(strings.TrimSpace(r.Model))
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	return r
}

// Validate checks the request against the backend's accepted catalog. The
// returned error wraps services.ErrValidation.
func (r Request) Validate() error {
	prompt := strings.TrimSpace(r.Prompt)
	switch {
	case prompt == "":
		return invalid("prompt is required")
	case utf8.RuneCountInString(prompt) > MaxPromptLength:
		return invalid(fmt.Sprintf("prompt exceeds %d characters", MaxPromptLength))
	}
	if !slices.Contains(supportedDurations, r.Duration) {
		return invalid(fmt.Sprintf("duration %ds is not one of %v", r.Duration, supportedDurations))
	}
	model := strings.ToLower(strings.TrimSpace(r.Model))
	if !slices.Contains(supportedModels, model) {
		return invalid(fmt.Sprintf("model %q is not one of %s", r.Model, strings.Join(supportedModels, ", ")))
	}
	if r.Temperature != 0 && (r.Temperature < MinTemperature || r.Temperature > MaxTemperature) {
		return invalid(fmt.Sprintf("temperature %.2f outside %.1f-%.1f", r.Temperature, MinTemperature, MaxTemperature))
	}
	return nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "generation", "validate request", message, nil)
}

// EstimatedTime approximates how long the backend needs for a track of the
// given duration, in seconds. Long tracks are rendered in segments and pay
// a fixed stitching overhead.
func EstimatedTime(duration int) int {
	if duration <= 60 {
		return duration * 2
	}
	return int(float64(duration)*1.5 + 30)
}
