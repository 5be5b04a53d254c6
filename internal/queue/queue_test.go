package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/events"
	"github.com/noah-isme/backend-propostas/internal/proposal"
)

type stubClient struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func event(t *testing.T, topic string, payload events.ProposalPayload) events.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return events.Event{ID: "ev-1", Topic: topic, AggregateID: "p-1", Payload: raw}
}

func TestEnqueuerReactsToShareAndSent(t *testing.T) {
	client := &stubClient{}
	e := Enqueuer{Client: client, MaxRetry: 3}
	ctx := context.Background()

	require.NoError(t, e.Notify(ctx, event(t, events.TopicProposalShared, events.ProposalPayload{Owner: "u-1"})))
	require.NoError(t, e.Notify(ctx, event(t, events.TopicProposalStatusChanged, events.ProposalPayload{Owner: "u-1", Status: "Enviada"})))
	require.NoError(t, e.Notify(ctx, event(t, events.TopicProposalStatusChanged, events.ProposalPayload{Owner: "u-1", Status: "Aprovada"})))
	require.NoError(t, e.Notify(ctx, event(t, events.TopicProposalCreated, events.ProposalPayload{Owner: "u-1"})))

	require.Len(t, client.tasks, 2)
	for _, task := range client.tasks {
		require.Equal(t, TypeRenderPDF, task.Type())
		p, err := DecodeRenderPayload(task)
		require.NoError(t, err)
		require.Equal(t, RenderPayload{ProposalID: "p-1", Owner: "u-1"}, p)
	}
}

func TestEnqueuerTreatsDuplicatesAsSuccess(t *testing.T) {
	ctx := context.Background()
	payload := RenderPayload{ProposalID: "p-1", Owner: "u-1"}

	require.NoError(t, Enqueuer{Client: &stubClient{err: asynq.ErrTaskIDConflict}}.EnqueueRender(ctx, payload, "ev-1"))
	require.NoError(t, Enqueuer{Client: &stubClient{err: asynq.ErrDuplicateTask}}.EnqueueRender(ctx, payload, ""))

	err := Enqueuer{Client: &stubClient{err: errors.New("redis down")}}.EnqueueRender(ctx, payload, "")
	require.ErrorContains(t, err, "redis down")

	require.Error(t, Enqueuer{}.EnqueueRender(ctx, payload, ""))
	require.Error(t, Enqueuer{Client: &stubClient{}}.EnqueueRender(ctx, RenderPayload{ProposalID: "p-1"}, ""))
}

type stubLoader struct {
	snap proposal.Snapshot
	err  error
}

func (s stubLoader) Snapshot(_ context.Context, _, _ string) (proposal.Snapshot, error) {
	return s.snap, s.err
}

type stubDocuments struct {
	saved []proposal.Snapshot
	err   error
}

func (s *stubDocuments) Save(snap proposal.Snapshot) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, snap)
	return "/tmp/proposal_" + snap.ID + ".pdf", nil
}

func renderTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewRenderTask(RenderPayload{ProposalID: "p-1", Owner: "u-1"})
	require.NoError(t, err)
	return task
}

func TestRenderHandler(t *testing.T) {
	ctx := context.Background()

	docs := &stubDocuments{}
	h := &RenderHandler{Loader: stubLoader{snap: proposal.Snapshot{ID: "p-1"}}, Documents: docs}
	require.NoError(t, h.ProcessTask(ctx, renderTask(t)))
	require.Len(t, docs.saved, 1)

	gone := &RenderHandler{Loader: stubLoader{err: common.NotFound("proposal")}, Documents: docs}
	err := gone.ProcessTask(ctx, renderTask(t))
	require.ErrorIs(t, err, asynq.SkipRetry)

	flaky := &RenderHandler{Loader: stubLoader{err: errors.New("db timeout")}, Documents: docs}
	err = flaky.ProcessTask(ctx, renderTask(t))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	broken := &RenderHandler{Loader: stubLoader{snap: proposal.Snapshot{ID: "p-1"}}, Documents: &stubDocuments{err: errors.New("disk full")}}
	require.ErrorContains(t, broken.ProcessTask(ctx, renderTask(t)), "disk full")

	err = h.ProcessTask(ctx, asynq.NewTask(TypeRenderPDF, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type recordingLocker struct {
	keys []string
}

func (l *recordingLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	l.keys = append(l.keys, key)
	return fn(ctx)
}

func TestRenderHandlerLocksPerProposal(t *testing.T) {
	locks := &recordingLocker{}
	docs := &stubDocuments{}
	h := &RenderHandler{Loader: stubLoader{snap: proposal.Snapshot{ID: "p-1"}}, Documents: docs, Locks: locks}
	require.NoError(t, h.ProcessTask(context.Background(), renderTask(t)))
	require.Len(t, docs.saved, 1)
	require.Len(t, locks.keys, 1)
	require.Equal(t, "render:p-1", locks.keys[0])
}

func TestServeMuxRoutesRenderTasks(t *testing.T) {
	docs := &stubDocuments{}
	mux := NewServeMux(&RenderHandler{Loader: stubLoader{snap: proposal.Snapshot{ID: "p-1"}}, Documents: docs})
	require.NoError(t, mux.ProcessTask(context.Background(), renderTask(t)))
	require.Len(t, docs.saved, 1)
	require.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)))
}
