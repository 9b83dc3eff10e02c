package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smarterbotcl/smarterhub/pkg/ratelimit"
)

// MCPHandler adapts a registry handler to the MCP tool handler shape.
// The caller identity is taken from the request context, placed there by
// the transport middleware. Each call draws on the same per-caller rate
// budget the REST dispatcher draws on, and is timed and recorded the
// same way.
func MCPHandler(recorder *Recorder, limiter *ratelimit.Limiter, name string, handler Handler) func(context.Context, *mcp.CallToolRequest, map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
		userID, ok := CallerFromContext(ctx)
		if !ok {
			return nil, nil, ErrUnauthorized
		}

		if decision := limiter.Allow(userID); !decision.Allowed {
			return nil, nil, fmt.Errorf("%w: retry after %dms", ErrRateLimited, decision.RetryAfter.Milliseconds())
		}

		args, err := json.Marshal(input)
		if err != nil {
			return nil, nil, err
		}

		startTime := time.Now()
		result, err := handler(ctx, userID, args)
		durationMs := time.Since(startTime).Milliseconds()

		recorder.Record(userID, name, args, result, durationMs, err)

		if err != nil {
			return nil, nil, err
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, nil, err
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(data)},
			},
		}, nil, nil
	}
}
