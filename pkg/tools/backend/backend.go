// Package backend exposes whitelisted pass-through tools for the
// provisioning backend API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/server"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
)

// DefaultBaseURL is the production backend host.
const DefaultBaseURL = "https://api.smarterbot.cl"

// requestTimeout bounds every outbound backend call.
const requestTimeout = 4 * time.Second

// allowedPaths is the whitelist of forwardable path prefixes.
var allowedPaths = []string{
	"/health",
	"/validate",
	"/contacts",
	"/tenants",
	"/services/provision",
	"/services/status",
	"/chatwoot/inbox",
	"/botpress/workspace",
	"/odoo/company",
	"/n8n/workflow",
}

type GetInput struct {
	Path string `json:"path" validate:"required,startswith=/"`
}

type PostInput struct {
	Path string         `json:"path" validate:"required,startswith=/"`
	Body map[string]any `json:"body,omitempty"`
}

type ProvisionInput struct {
	TenantID string   `json:"tenantId" validate:"required,uuid"`
	Services []string `json:"services" validate:"required,dive,oneof=chatwoot botpress odoo n8n"`
}

type StatusInput struct {
	TenantID string `json:"tenantId" validate:"required,uuid"`
}

// ProxyMeta carries upstream latency measured around the HTTP call.
type ProxyMeta struct {
	LatencyMs int64 `json:"latencyMs"`
}

// ProxyResult is the shape returned by every proxy tool.
type ProxyResult struct {
	OK   bool      `json:"ok"`
	Data any       `json:"data"`
	Meta ProxyMeta `json:"meta"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	baseURL   string
	client    *http.Client
}

func New(logger zerolog.Logger, baseURL string) *Tool {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Tool{
		logger:    logger.With().Str("tool", "backend").Logger(),
		validator: validator.New(),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    &http.Client{Timeout: requestTimeout},
	}
}

func (t *Tool) Register(srv *server.Server) error {
	entries := []struct {
		name        string
		description string
		handler     tools.Handler
	}{
		{"fastapi.get", "Call backend GET endpoint", t.Get},
		{"fastapi.post", "Call backend POST endpoint", t.Post},
		{"services.provision", "Provision services for a tenant", t.Provision},
		{"services.status", "Get services status for a tenant", t.Status},
	}

	for _, entry := range entries {
		if err := srv.Registry().Register(entry.name, entry.handler); err != nil {
			return err
		}
		mcp.AddTool(&srv.Server, &mcp.Tool{
			Name:        entry.name,
			Description: entry.description,
		}, tools.MCPHandler(srv.Recorder(), srv.Limiter(), entry.name, entry.handler))
	}
	t.logger.Debug().Msg("backend proxy tools registered")

	return nil
}

func isPathAllowed(path string) bool {
	for _, allowed := range allowedPaths {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}

// Get forwards a GET request to a whitelisted backend path.
func (t *Tool) Get(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input GetInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	return t.forward(ctx, http.MethodGet, input.Path, nil, userID)
}

// Post forwards a POST request with an optional JSON body.
func (t *Tool) Post(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input PostInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	return t.forward(ctx, http.MethodPost, input.Path, input.Body, userID)
}

// Provision requests provisioning of the named services, embedding the
// caller as requested_by.
func (t *Tool) Provision(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input ProvisionInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	body := map[string]any{
		"tenant_id":    input.TenantID,
		"services":     input.Services,
		"requested_by": userID,
	}
	return t.forward(ctx, http.MethodPost, "/services/provision", body, userID)
}

// Status fetches the provisioning state for a tenant.
func (t *Tool) Status(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input StatusInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	path := "/services/status?tenant_id=" + url.QueryEscape(input.TenantID)
	return t.forward(ctx, http.MethodGet, path, nil, userID)
}

// forward issues the upstream call. The whitelist check runs before any
// network activity.
func (t *Tool) forward(ctx context.Context, method, path string, body map[string]any, userID string) (any, error) {
	if !isPathAllowed(path) {
		return nil, fmt.Errorf("path not allowed: %s", path)
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	started := time.Now()
	res, err := t.client.Do(req)
	latency := time.Since(started).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("backend %s %s failed (%dms): %w", method, path, latency, err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("backend responded %d: %s (%dms)", res.StatusCode, http.StatusText(res.StatusCode), latency)
	}

	var data any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}

	t.logger.Debug().Msgf("backend %s %s completed in %dms", method, path, latency)
	return ProxyResult{OK: true, Data: data, Meta: ProxyMeta{LatencyMs: latency}}, nil
}
