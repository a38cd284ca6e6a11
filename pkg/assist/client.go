// Package assist is the client for the external AI collaborator. It turns
// free-text requirements into playbook drafts, summarizes playbook content,
// and compares execution logs. Every operation is text in, text out; the
// caller's catalog and results are never mutated from here.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/errclass"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

// Operation names used in metrics and events.
const (
	OpGenerate = "generate"
	OpAnalyze  = "analyze"
	OpCompare  = "compare"
)

// Placeholder texts returned to the presentation layer when the
// collaborator fails. Errors never propagate past the console boundary;
// the user sees these instead.
const (
	PlaceholderGenerate = "Error: Could not generate playbook."
	PlaceholderAnalyze  = "Error: Could not analyze playbook."
	PlaceholderCompare  = "Error: Could not compare results."
)

// Placeholder returns the degraded-output text for an operation.
func Placeholder(operation string) string {
	switch operation {
	case OpAnalyze:
		return PlaceholderAnalyze
	case OpCompare:
		return PlaceholderCompare
	default:
		return PlaceholderGenerate
	}
}

// DefaultBaseURL is the Gemini API endpoint prefix.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Config holds the collaborator client configuration.
type Config struct {
	// APIKey authenticates against the Gemini API. Empty disables the
	// client; calls then fail as upstream errors without a network round
	// trip.
	APIKey string `yaml:"api_key" json:"-"`

	// Model is the generative model identifier.
	Model string `yaml:"model" json:"model"`

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// Timeout bounds one API round trip.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// UnmarshalYAML accepts the timeout as a Go duration string. Absent keys
// keep the values already in place.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.APIKey != "" {
		c.APIKey = raw.APIKey
	}
	if raw.Model != "" {
		c.Model = raw.Model
	}
	if raw.BaseURL != "" {
		c.BaseURL = raw.BaseURL
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid collaborator timeout: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// Deps bundles the observability collaborators. All fields may be nil.
type Deps struct {
	Events  *telemetry.EventBus
	Metrics *telemetry.Metrics
	Logger  *telemetry.Logger
}

func (d *Deps) normalize() {
	if d.Logger == nil {
		logger, _ := telemetry.NewLogger(telemetry.LoggingConfig{Level: "info"})
		d.Logger = logger
	}
	if d.Events == nil {
		d.Events = telemetry.NewEventBus(telemetry.EventsConfig{})
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
}

// Client calls the Gemini generateContent API over REST.
type Client struct {
	config Config
	deps   Deps
	http   *http.Client
}

// NewClient creates a collaborator client.
func NewClient(cfg Config, deps Deps) *Client {
	deps.normalize()
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		deps:   deps,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// GeneratePlaybook produces a playbook body from a free-text requirement.
// Markdown code fences around the YAML are stripped. Restricted to roles
// that may generate.
func (c *Client) GeneratePlaybook(ctx context.Context, role access.Role, requirement string) (string, error) {
	if !access.CanGenerate(role) {
		return "", errclass.NewPermissionDenied(role.String(), "generate playbooks")
	}

	text, err := c.call(ctx, OpGenerate, generatePrompt(requirement))
	if err != nil {
		return "", err
	}
	return cleanYAML(text), nil
}

// AnalyzePlaybook summarizes a playbook body as markdown.
func (c *Client) AnalyzePlaybook(ctx context.Context, content string) (string, error) {
	return c.call(ctx, OpAnalyze, analyzePrompt(content))
}

// CompareResults summarizes the differences between two execution logs.
func (c *Client) CompareResults(ctx context.Context, logA, logB string) (string, error) {
	return c.call(ctx, OpCompare, comparePrompt(logA, logB))
}

// Wire types for the generateContent endpoint.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs one generateContent round trip and records its outcome.
func (c *Client) call(ctx context.Context, operation, prompt string) (string, error) {
	started := time.Now()

	text, err := c.doCall(ctx, prompt)
	status := "success"
	if err != nil {
		status = "error"
	}
	c.deps.Metrics.RecordAssistCall(operation, status, time.Since(started))

	if err != nil {
		c.deps.Logger.WithField("operation", operation).WithError(err).Error("collaborator call failed")
		c.deps.Events.Publish(telemetry.Event{
			Type:    telemetry.EventTypeAssistFailed,
			Level:   telemetry.EventLevelError,
			Message: "collaborator " + operation + " failed: " + err.Error(),
		})
		return "", err
	}

	c.deps.Events.Publish(telemetry.Event{
		Type:    telemetry.EventTypeAssistCalled,
		Message: "collaborator " + operation + " completed",
	})
	return text, nil
}

func (c *Client) doCall(ctx context.Context, prompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", errclass.NewUpstreamFailure("collaborator is not configured", nil)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errclass.NewUpstreamFailure("failed to encode request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, c.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errclass.NewUpstreamFailure("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errclass.NewUpstreamFailure("collaborator request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errclass.NewUpstreamFailure("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errclass.NewUpstreamFailure(
			fmt.Sprintf("collaborator returned status %d", resp.StatusCode), nil)
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", errclass.NewUpstreamFailure("malformed collaborator response", err)
	}
	if decoded.Error != nil {
		return "", errclass.NewUpstreamFailure(decoded.Error.Message, nil)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errclass.NewUpstreamFailure("collaborator returned no candidates", nil)
	}

	var b strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// cleanYAML strips a markdown code fence around generated playbook text.
func cleanYAML(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```yaml\n")
	text = strings.TrimPrefix(text, "```\n")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
