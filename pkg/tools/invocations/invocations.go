// Package invocations exposes the caller's tool-invocation history.
package invocations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/models"
	"github.com/smarterbotcl/smarterhub/pkg/server"
	"github.com/smarterbotcl/smarterhub/pkg/storage"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
	"github.com/smarterbotcl/smarterhub/pkg/types"
)

type Input struct {
	Limit int `json:"limit,omitempty" validate:"min=0,max=100"`
}

// Item is one history entry with args/result re-parsed to JSON values
// where possible.
type Item struct {
	ID         uint      `json:"id"`
	At         time.Time `json:"at"`
	Tool       string    `json:"tool"`
	DurationMs int64     `json:"durationMs"`
	Success    bool      `json:"success"`
	Args       any       `json:"args"`
	Result     any       `json:"result"`
	Error      string    `json:"error,omitempty"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	store     storage.Storage
}

func New(logger zerolog.Logger) *Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "invocations").Logger(),
		validator: validator.New(),
	}
}

func (t *Tool) Register(srv *server.Server) error {
	t.store = srv.Storage()

	if err := srv.Registry().Register("invocations.recent", t.Recent); err != nil {
		return err
	}
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "invocations.recent",
		Description: "List recent tool invocations for the authenticated user",
	}, tools.MCPHandler(srv.Recorder(), srv.Limiter(), "invocations.recent", t.Recent))
	t.logger.Debug().Msg("invocations tool registered")

	return nil
}

// Recent returns the caller's latest invocation records, newest first.
func (t *Tool) Recent(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input Input
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = types.DefaultRecentLimit
	}

	records, err := t.store.RecentInvocations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}

	return Items(records), nil
}

// Items converts stored records to their presentation shape.
func Items(records []models.Invocation) []Item {
	items := make([]Item, 0, len(records))
	for i := range records {
		items = append(items, toItem(&records[i]))
	}
	return items
}

func toItem(inv *models.Invocation) Item {
	item := Item{
		ID:         inv.ID,
		At:         inv.CreatedAt,
		Tool:       inv.Tool,
		DurationMs: inv.DurationMs,
		Success:    inv.Success,
		Error:      inv.ErrorMessage,
	}
	// Truncated rows may hold broken JSON; fall back to the raw string.
	if inv.Args != "" {
		if err := json.Unmarshal([]byte(inv.Args), &item.Args); err != nil {
			item.Args = inv.Args
		}
	}
	if inv.Result != "" {
		if err := json.Unmarshal([]byte(inv.Result), &item.Result); err != nil {
			item.Result = inv.Result
		}
	}
	return item
}
