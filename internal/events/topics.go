package events

// Topic constants for domain events emitted by the proposal service.
const (
	TopicProposalCreated       = "proposal.created"
	TopicProposalUpdated       = "proposal.updated"
	TopicProposalStatusChanged = "proposal.status_changed"
	TopicProposalDuplicated    = "proposal.duplicated"
	TopicProposalDeleted       = "proposal.deleted"
	TopicProposalShared        = "proposal.shared"
)

// DefaultTopics returns every topic the proposal service emits.
func DefaultTopics() []string {
	return []string{
		TopicProposalCreated,
		TopicProposalUpdated,
		TopicProposalStatusChanged,
		TopicProposalDuplicated,
		TopicProposalDeleted,
		TopicProposalShared,
	}
}

// ProposalPayload is the JSON payload carried by proposal events.
type ProposalPayload struct {
	Owner      string  `json:"owner"`
	Status     string  `json:"status,omitempty"`
	FromStatus string  `json:"from_status,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	SourceID   string  `json:"source_id,omitempty"`
	ShareToken string  `json:"share_token,omitempty"`
}
