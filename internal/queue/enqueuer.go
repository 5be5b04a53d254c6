package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-propostas/internal/events"
)

// TaskClient is the subset of *asynq.Client used for enqueueing.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules PDF renders in reaction to proposal events. It implements events.Notifier.
type Enqueuer struct {
	Client      TaskClient
	MaxRetry    int
	DedupWindow time.Duration
}

// Notify enqueues a render when a proposal is shared or moved to Enviada. Other events are
// ignored.
func (e Enqueuer) Notify(ctx context.Context, ev events.Event) error {
	var payload events.ProposalPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("queue: decode event payload: %w", err)
		}
	}
	if !wantsRender(ev.Topic, payload) {
		return nil
	}
	return e.EnqueueRender(ctx, RenderPayload{ProposalID: ev.AggregateID, Owner: payload.Owner}, ev.ID)
}

// EnqueueRender schedules a render of p. dedupKey, when set, makes repeated calls with the same
// key collapse into one task.
func (e Enqueuer) EnqueueRender(ctx context.Context, p RenderPayload, dedupKey string) error {
	if e.Client == nil {
		return errors.New("queue: task client not configured")
	}
	opts := []asynq.Option{asynq.Queue(QueueDocuments)}
	if e.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(e.MaxRetry))
	}
	if dedupKey != "" {
		opts = append(opts, asynq.TaskID(TypeRenderPDF+":"+dedupKey))
	}
	if e.DedupWindow > 0 {
		opts = append(opts, asynq.Unique(e.DedupWindow))
	}
	task, err := NewRenderTask(p, opts...)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, task)
	switch {
	case err == nil:
		TasksEnqueuedTotal.WithLabelValues(TypeRenderPDF, "enqueued").Inc()
		return nil
	case errors.Is(err, asynq.ErrTaskIDConflict), errors.Is(err, asynq.ErrDuplicateTask):
		TasksEnqueuedTotal.WithLabelValues(TypeRenderPDF, "duplicate").Inc()
		return nil
	default:
		TasksEnqueuedTotal.WithLabelValues(TypeRenderPDF, "error").Inc()
		return fmt.Errorf("queue: enqueue render: %w", err)
	}
}

func wantsRender(topic string, payload events.ProposalPayload) bool {
	switch topic {
	case events.TopicProposalShared:
		return true
	case events.TopicProposalStatusChanged:
		return payload.Status == "Enviada"
	default:
		return false
	}
}
