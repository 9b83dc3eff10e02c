package tools

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/models"
	"github.com/smarterbotcl/smarterhub/pkg/storage"
	"github.com/smarterbotcl/smarterhub/pkg/types"
)

// Recorder persists invocation metadata without blocking the response
// path. It is a no-op unless enabled; write failures only reach the
// diagnostic log.
type Recorder struct {
	logger  zerolog.Logger
	store   storage.Storage
	enabled bool
}

func NewRecorder(logger zerolog.Logger, store storage.Storage, enabled bool) *Recorder {
	return &Recorder{
		logger:  logger.With().Str("component", "recorder").Logger(),
		store:   store,
		enabled: enabled,
	}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.enabled && r.store != nil
}

// Record writes one invocation row asynchronously.
// Using a background context intentionally - the write should complete
// even if the originating request has already finished.
func (r *Recorder) Record(userID, tool string, args json.RawMessage, result any, durationMs int64, callErr error) {
	if !r.Enabled() {
		return
	}

	inv := &models.Invocation{
		UserID:     userID,
		Tool:       tool,
		Args:       truncate(string(args), types.MaxSerializedLen),
		DurationMs: durationMs,
		Success:    callErr == nil,
	}

	if callErr != nil {
		inv.ErrorMessage = callErr.Error()
	} else if result != nil {
		resultJSON, _ := json.Marshal(result)
		inv.Result = truncate(string(resultJSON), types.MaxSerializedLen)
	}

	go func() { //nolint:contextcheck
		if err := r.store.CreateInvocation(context.Background(), inv); err != nil {
			r.logger.Warn().Msgf("invocation log insert failed: %v", err)
		}
	}()
}

// truncate caps s at limit bytes, backing off to the previous rune
// boundary so the stored text stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
