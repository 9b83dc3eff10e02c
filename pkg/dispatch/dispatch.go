// Package dispatch routes named tool invocations through authentication,
// rate limiting, registry resolution and result shaping.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/ratelimit"
	"github.com/smarterbotcl/smarterhub/pkg/server"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
)

// Error codes surfaced to callers.
const (
	CodeUnauthorized = "unauthorized"
	CodeMissingName  = "missing_name"
	CodeRateLimited  = "rate_limited"
	CodeToolNotFound = "tool_not_found"
	CodeToolError    = "tool_error"
	CodeDisabled     = "mcp_disabled"
	CodeInvalidJSON  = "invalid_json"
)

// Outcome is the normalized result of one dispatch. Exactly one of
// OK/Code describes the terminal state; Executed marks whether a handler
// actually ran (and therefore whether DurationMs is meaningful).
type Outcome struct {
	OK           bool
	Result       any
	Code         string
	Message      string
	Name         string
	RetryAfterMs int64
	Executed     bool
	DurationMs   int64
}

type Dispatcher struct {
	logger   zerolog.Logger
	registry *tools.Registry
	limiter  *ratelimit.Limiter
	recorder *tools.Recorder
}

func NewDispatcher(logger zerolog.Logger, srv *server.Server) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With().Str("component", "dispatch").Logger(),
		registry: srv.Registry(),
		limiter:  srv.Limiter(),
		recorder: srv.Recorder(),
	}
}

// Dispatch runs the per-request state machine: identity, tool name, rate
// budget, resolution, execution. Checks always fire in that order, so a
// request failing several of them reports the first.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, name string, args json.RawMessage) Outcome {
	if userID == "" {
		return Outcome{Code: CodeUnauthorized}
	}
	if name == "" {
		return Outcome{Code: CodeMissingName}
	}

	decision := d.limiter.Allow(userID)
	if !decision.Allowed {
		return Outcome{Code: CodeRateLimited, RetryAfterMs: decision.RetryAfter.Milliseconds()}
	}

	handler, ok := d.registry.Resolve(name)
	if !ok {
		return Outcome{Code: CodeToolNotFound, Name: name}
	}

	startTime := time.Now()
	result, err := handler(ctx, userID, args)
	durationMs := time.Since(startTime).Milliseconds()

	d.recorder.Record(userID, name, args, result, durationMs, err)

	if err != nil {
		d.logger.Warn().
			Str("user", userID).
			Str("tool", name).
			Int64("duration_ms", durationMs).
			Err(err).
			Msg("invocation failed")
		return Outcome{
			Code:       CodeToolError,
			Message:    err.Error(),
			Executed:   true,
			DurationMs: durationMs,
		}
	}

	d.logger.Info().
		Str("user", userID).
		Str("tool", name).
		Int64("duration_ms", durationMs).
		Msg("invocation completed")
	return Outcome{
		OK:         true,
		Result:     result,
		Executed:   true,
		DurationMs: durationMs,
	}
}
