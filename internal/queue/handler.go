package queue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/obs"
	"github.com/noah-isme/backend-propostas/internal/proposal"
)

// SnapshotLoader loads the snapshot of an owner's proposal.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, owner, id string) (proposal.Snapshot, error)
}

// DocumentWriter persists a rendered snapshot and returns its location.
type DocumentWriter interface {
	Save(snap proposal.Snapshot) (string, error)
}

// Locker serializes work on a named resource across workers.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// renderLockTTL bounds how long one render may hold the per-proposal lock.
const renderLockTTL = 2 * time.Minute

// RenderHandler processes TypeRenderPDF tasks. When Locks is set, renders of the same
// proposal never run concurrently.
type RenderHandler struct {
	Loader    SnapshotLoader
	Documents DocumentWriter
	Locks     Locker
	Logger    zerolog.Logger
}

// ProcessTask implements asynq.Handler. Malformed payloads and proposals that no longer exist
// are not retried.
func (h *RenderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := DecodeRenderPayload(t)
	if err != nil {
		h.Logger.Error().Err(err).Str("task_type", t.Type()).Msg("invalid render payload")
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := h.Logger.With().Str("task_type", t.Type()).Str("proposal_id", payload.ProposalID).Logger()

	if h.Locks == nil {
		return h.render(ctx, payload, logger)
	}
	return h.Locks.WithLock(ctx, "render:"+payload.ProposalID, renderLockTTL, func(ctx context.Context) error {
		return h.render(ctx, payload, logger)
	})
}

func (h *RenderHandler) render(ctx context.Context, payload RenderPayload, logger zerolog.Logger) error {
	snap, err := h.Loader.Snapshot(ctx, payload.Owner, payload.ProposalID)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound {
			logger.Warn().Msg("proposal gone, skipping render")
			return fmt.Errorf("load snapshot: %v: %w", err, asynq.SkipRetry)
		}
		logger.Error().Err(err).Msg("load snapshot failed")
		return fmt.Errorf("load snapshot: %w", err)
	}

	start := time.Now()
	path, err := h.Documents.Save(snap)
	if err != nil {
		obs.ObservePDFRender("error", time.Since(start))
		logger.Error().Err(err).Msg("render pdf failed")
		return fmt.Errorf("render pdf: %w", err)
	}
	obs.ObservePDFRender("ok", time.Since(start))
	logger.Info().Str("path", path).Msg("proposal pdf rendered")
	return nil
}

// NewServeMux registers the task handlers with the metrics middleware.
func NewServeMux(render asynq.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(MetricsMiddleware)
	mux.Handle(TypeRenderPDF, render)
	return mux
}
