package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/config"
	"github.com/smarterbotcl/smarterhub/pkg/server"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
	"github.com/smarterbotcl/smarterhub/pkg/tools/invocations"
	"github.com/smarterbotcl/smarterhub/pkg/types"
)

// CallerHeader carries the authenticated caller identity, resolved by
// the identity provider in front of this service.
const CallerHeader = "X-User-ID"

// API serves the REST invocation surface.
type API struct {
	logger     zerolog.Logger
	cfg        config.Config
	dispatcher *Dispatcher
	srv        *server.Server
	version    string
}

func NewAPI(logger zerolog.Logger, cfg config.Config, dispatcher *Dispatcher, srv *server.Server, version string) *API {
	return &API{
		logger:     logger.With().Str("component", "api").Logger(),
		cfg:        cfg,
		dispatcher: dispatcher,
		srv:        srv,
		version:    version,
	}
}

// Routes mounts the invocation endpoints on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/mcp", a.handleDescriptor)
	mux.HandleFunc("/api/mcp/tool", a.handleTool)
	mux.HandleFunc("/api/mcp/ping", a.handlePing)
	mux.HandleFunc("/api/mcp/invocations/recent", a.handleRecent)
}

// WithCallerHeader lifts the caller identity header into the request
// context for handlers that read it from there (the MCP transport).
func WithCallerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(CallerHeader); userID != "" {
			r = r.WithContext(tools.WithCaller(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

type toolRequest struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

func (a *API) handleTool(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"enabled": a.cfg.Enabled,
			"usage": map[string]any{
				"method":      http.MethodPost,
				"bodyExample": map[string]any{"name": "tenants.list", "args": map[string]any{}},
			},
			"availableTools": a.srv.Registry().Names(),
		})
	case http.MethodHead:
		w.Header().Set("X-MCP-Tools", fmt.Sprint(a.srv.Registry().Len()))
		w.WriteHeader(http.StatusOK)
	case http.MethodOptions:
		w.Header().Set("Allow", "GET,POST,HEAD,OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		a.invokeTool(w, r)
	default:
		a.writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method_not_allowed"})
	}
}

func (a *API) invokeTool(w http.ResponseWriter, r *http.Request) {
	if !a.cfg.Enabled {
		a.writeJSON(w, http.StatusForbidden, map[string]any{
			"ok":      false,
			"error":   CodeDisabled,
			"message": "SMARTERHUB_MCP_ENABLED not true",
		})
		return
	}

	userID := r.Header.Get(CallerHeader)
	debugMode := r.URL.Query().Get("debug") == "1"

	if userID == "" {
		body := map[string]any{"ok": false, "error": CodeUnauthorized}
		if debugMode {
			body["debug"] = map[string]any{
				"hasAuth": false,
				"note":    "no caller identity header; verify the identity provider forwards " + CallerHeader,
			}
		}
		a.writeJSON(w, http.StatusUnauthorized, body)
		return
	}

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": CodeInvalidJSON})
		return
	}
	if req.Name == "" {
		a.writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": CodeMissingName})
		return
	}

	outcome := a.dispatcher.Dispatch(r.Context(), userID, req.Name, req.Args)
	body := outcomeBody(outcome)
	if debugMode {
		body["auth"] = "ok"
		body["userId"] = userID
		body["tool"] = req.Name
	}
	a.writeJSON(w, outcomeStatus(outcome), body)
}

func (a *API) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method_not_allowed"})
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"enabled":        a.cfg.Enabled,
		"authenticated":  r.Header.Get(CallerHeader) != "",
		"availableTools": a.srv.Registry().Names(),
		"rateLimit": map[string]any{
			"windowMs":    a.srv.Limiter().Window().Milliseconds(),
			"maxRequests": a.srv.Limiter().Max(),
		},
		"executeEndpoint": "/api/mcp/tool",
		"executeMethod":   http.MethodPost,
		"example":         map[string]any{"name": "tenants.list", "args": map[string]any{}},
	})
}

func (a *API) handlePing(w http.ResponseWriter, r *http.Request) {
	if !a.cfg.Enabled {
		a.writeJSON(w, http.StatusOK, map[string]any{
			"ok":       false,
			"service":  "mcp",
			"disabled": true,
			"reason":   "SMARTERHUB_MCP_ENABLED not true",
		})
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "mcp", "version": a.version})
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	if !a.cfg.Enabled {
		a.writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": CodeDisabled})
		return
	}

	userID := r.Header.Get(CallerHeader)
	if userID == "" {
		a.writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": CodeUnauthorized})
		return
	}

	records, err := a.srv.Storage().RecentInvocations(r.Context(), userID, types.DefaultRecentLimit)
	if err != nil {
		a.logger.Warn().Msgf("recent invocations query failed: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":      false,
			"error":   "fetch_error",
			"message": err.Error(),
		})
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": invocations.Items(records)})
}

func outcomeStatus(o Outcome) int {
	if o.OK {
		return http.StatusOK
	}
	switch o.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeMissingName, CodeInvalidJSON:
		return http.StatusBadRequest
	case CodeDisabled:
		return http.StatusForbidden
	case CodeToolNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func outcomeBody(o Outcome) map[string]any {
	if o.OK {
		return map[string]any{
			"ok":     true,
			"result": o.Result,
			"meta":   map[string]any{"durationMs": o.DurationMs},
		}
	}

	body := map[string]any{"ok": false, "error": o.Code}
	if o.Message != "" {
		body["message"] = o.Message
	}
	if o.Name != "" {
		body["name"] = o.Name
	}
	if o.Code == CodeRateLimited {
		body["retryAfterMs"] = o.RetryAfterMs
	}
	if o.Executed {
		body["meta"] = map[string]any{"durationMs": o.DurationMs}
	}
	return body
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Warn().Msgf("failed to encode response: %v", err)
	}
}
