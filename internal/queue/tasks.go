package queue

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

// TypeRenderPDF renders a proposal document to PDF storage.
const TypeRenderPDF = "proposal:render_pdf"

// QueueDocuments is the asynq queue document tasks run on.
const QueueDocuments = "documents"

// RenderPayload identifies the proposal to render.
type RenderPayload struct {
	ProposalID string `json:"proposal_id"`
	Owner      string `json:"owner"`
}

// NewRenderTask builds a render task for p.
func NewRenderTask(p RenderPayload, opts ...asynq.Option) (*asynq.Task, error) {
	if strings.TrimSpace(p.ProposalID) == "" || strings.TrimSpace(p.Owner) == "" {
		return nil, errors.New("queue: proposal id and owner are required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRenderPDF, payload, opts...), nil
}

// DecodeRenderPayload parses a render task payload.
func DecodeRenderPayload(t *asynq.Task) (RenderPayload, error) {
	var p RenderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return RenderPayload{}, err
	}
	if p.ProposalID == "" || p.Owner == "" {
		return RenderPayload{}, errors.New("queue: incomplete render payload")
	}
	return p, nil
}
