package proposal

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-propostas/internal/cache"
	"github.com/noah-isme/backend-propostas/internal/client"
	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/events"
	"github.com/noah-isme/backend-propostas/internal/obs"
	"github.com/noah-isme/backend-propostas/internal/pricing"
)

// ErrNotFound is returned by stores when no proposal matches.
var ErrNotFound = errors.New("proposal not found")

// Store is the persistence contract of the proposal service. Get and GetByShareToken return
// raw rows so every read goes through BuildSnapshot normalization.
type Store interface {
	Insert(ctx context.Context, p Proposal) (string, error)
	Replace(ctx context.Context, p Proposal) error
	Get(ctx context.Context, owner, id string) (RawProposal, []RawServiceLine, error)
	GetByShareToken(ctx context.Context, token string) (RawProposal, []RawServiceLine, error)
	List(ctx context.Context, owner string, params ListParams) ([]Summary, int64, error)
	SetStatus(ctx context.Context, owner, id string, status Status) error
	// SetShareToken stores token unless the proposal already has one and returns the token in
	// effect afterwards.
	SetShareToken(ctx context.Context, owner, id, token string) (string, error)
	Delete(ctx context.Context, owner, id string) error
	// SharedTokensByClient lists the share tokens of owner's proposals addressed to clientID.
	SharedTokensByClient(ctx context.Context, owner, clientID string) ([]string, error)
}

// ClientResolver resolves the client a proposal is addressed to.
type ClientResolver interface {
	FindOrCreate(ctx context.Context, owner string, in client.Input) (client.Client, bool, error)
	Get(ctx context.Context, owner, id string) (client.Client, error)
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Service implements proposal management on top of a Store.
type Service struct {
	Store         Store
	Clients       ClientResolver
	Events        EventEmitter
	Cache         *cache.JSON
	Logger        zerolog.Logger
	Options       SnapshotOptions
	PublicBaseURL string
}

// ShareLink is the public address of a shared proposal.
type ShareLink struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// Quote is a stateless preview of the pricing of an unsaved proposal.
type Quote struct {
	Services     []ServiceLine `json:"services"`
	Totals       Totals        `json:"totals"`
	InterestRate *float64      `json:"interest_rate"`
}

// Create persists a new proposal. Drafts start as Rascunho, everything else as Criada.
func (s *Service) Create(ctx context.Context, owner string, in Input) (Proposal, error) {
	if err := checkOwner(owner); err != nil {
		return Proposal{}, err
	}
	if err := validateInput(in); err != nil {
		return Proposal{}, err
	}
	clientID, err := s.resolveClient(ctx, owner, in)
	if err != nil {
		return Proposal{}, err
	}
	p := assemble(owner, in, clientID)
	if err := checkAmount(p); err != nil {
		return Proposal{}, err
	}
	p.Status = StatusCreated
	if in.Draft {
		p.Status = StatusDraft
	}
	id, err := s.Store.Insert(ctx, p)
	if err != nil {
		return Proposal{}, mapWriteError(err)
	}
	obs.ObserveProposalCreated(string(p.Status))
	s.emit(ctx, events.TopicProposalCreated, id, events.ProposalPayload{Owner: owner, Status: string(p.Status), Amount: p.Amount})
	s.invalidate(ctx, owner, "")
	return s.Get(ctx, owner, id)
}

// Get returns a single proposal with its service lines.
func (s *Service) Get(ctx context.Context, owner, id string) (Proposal, error) {
	raw, lines, err := s.load(ctx, owner, id)
	if err != nil {
		return Proposal{}, err
	}
	return s.fromRaw(raw, lines), nil
}

// List returns a page of proposal summaries.
func (s *Service) List(ctx context.Context, owner string, params ListParams) ([]Summary, int64, error) {
	if err := checkOwner(owner); err != nil {
		return nil, 0, err
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, common.ValidationError("status", "unknown status")
	}
	if params.ClientID != "" {
		if _, err := uuid.Parse(params.ClientID); err != nil {
			return nil, 0, common.ValidationError("client_id", "client_id must be a uuid")
		}
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	params.Query = strings.TrimSpace(params.Query)
	return s.Store.List(ctx, owner, params)
}

// Update replaces the proposal's fields and its full set of service lines. Status and share
// token are kept.
func (s *Service) Update(ctx context.Context, owner, id string, in Input) (Proposal, error) {
	raw, _, err := s.load(ctx, owner, id)
	if err != nil {
		return Proposal{}, err
	}
	if err := validateInput(in); err != nil {
		return Proposal{}, err
	}
	clientID, err := s.resolveClient(ctx, owner, in)
	if err != nil {
		return Proposal{}, err
	}
	p := assemble(owner, in, clientID)
	if err := checkAmount(p); err != nil {
		return Proposal{}, err
	}
	p.ID = raw.ID
	p.Status, _ = ParseStatus(raw.Status)
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := s.Store.Replace(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Proposal{}, common.NotFound("proposal")
		}
		return Proposal{}, mapWriteError(err)
	}
	s.emit(ctx, events.TopicProposalUpdated, id, events.ProposalPayload{Owner: owner, Status: string(p.Status), Amount: p.Amount})
	s.invalidate(ctx, owner, deref(raw.ShareToken))
	return s.Get(ctx, owner, id)
}

// UpdateStatus moves a proposal to any status of the closed set.
func (s *Service) UpdateStatus(ctx context.Context, owner, id, status string) (Proposal, error) {
	next, ok := ParseStatus(status)
	if !ok {
		return Proposal{}, common.ValidationError("status", "unknown status")
	}
	raw, _, err := s.load(ctx, owner, id)
	if err != nil {
		return Proposal{}, err
	}
	if err := s.Store.SetStatus(ctx, owner, id, next); err != nil {
		return Proposal{}, mapReadError(err)
	}
	obs.ObserveStatusChange(string(next))
	s.emit(ctx, events.TopicProposalStatusChanged, id, events.ProposalPayload{Owner: owner, Status: string(next), FromStatus: raw.Status})
	s.invalidate(ctx, owner, deref(raw.ShareToken))
	return s.Get(ctx, owner, id)
}

// Duplicate copies a proposal with its lines, payment, validity and theme. The copy starts as
// Criada and is not shared.
func (s *Service) Duplicate(ctx context.Context, owner, id string, in DuplicateInput) (Proposal, error) {
	source, err := s.Get(ctx, owner, id)
	if err != nil {
		return Proposal{}, err
	}
	copied := source
	copied.ID = ""
	copied.Status = StatusCreated
	copied.ShareToken = nil
	copied.Title = strings.TrimSpace(in.Title)
	if copied.Title == "" {
		copied.Title = source.Title + " (Cópia)"
	}
	if in.ClientID != "" {
		clientID, err := s.resolveClient(ctx, owner, Input{ClientID: in.ClientID})
		if err != nil {
			return Proposal{}, err
		}
		copied.ClientID = clientID
	}
	copied.Services = make([]ServiceLine, len(source.Services))
	for i, line := range source.Services {
		line.ID = ""
		copied.Services[i] = line
	}
	newID, err := s.Store.Insert(ctx, copied)
	if err != nil {
		return Proposal{}, mapWriteError(err)
	}
	obs.ObserveProposalCreated(string(copied.Status))
	s.emit(ctx, events.TopicProposalDuplicated, newID, events.ProposalPayload{Owner: owner, Status: string(copied.Status), SourceID: id, Amount: copied.Amount})
	s.invalidate(ctx, owner, "")
	return s.Get(ctx, owner, newID)
}

// Delete removes a proposal and its lines.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	raw, _, err := s.load(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, owner, id); err != nil {
		return mapReadError(err)
	}
	s.emit(ctx, events.TopicProposalDeleted, id, events.ProposalPayload{Owner: owner, Status: raw.Status})
	s.invalidate(ctx, owner, deref(raw.ShareToken))
	return nil
}

// Share returns the public link of a proposal, generating its token on first use.
func (s *Service) Share(ctx context.Context, owner, id string) (ShareLink, error) {
	raw, _, err := s.load(ctx, owner, id)
	if err != nil {
		return ShareLink{}, err
	}
	if token := deref(raw.ShareToken); token != "" {
		return s.link(token), nil
	}
	token, err := s.Store.SetShareToken(ctx, owner, id, uuid.NewString())
	if err != nil {
		return ShareLink{}, mapReadError(err)
	}
	s.emit(ctx, events.TopicProposalShared, id, events.ProposalPayload{Owner: owner, Status: raw.Status, ShareToken: token})
	return s.link(token), nil
}

// Snapshot builds the render snapshot of one of the owner's proposals.
func (s *Service) Snapshot(ctx context.Context, owner, id string) (Snapshot, error) {
	raw, lines, err := s.load(ctx, owner, id)
	if err != nil {
		return Snapshot{}, err
	}
	obs.ObserveSnapshot("owner")
	return BuildSnapshot(raw, lines, s.Options), nil
}

// PublicSnapshot resolves a share token into a snapshot, served from cache when possible.
func (s *Service) PublicSnapshot(ctx context.Context, token string) (Snapshot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Snapshot{}, common.NotFound("proposal")
	}
	key := cache.KeyPublicSnapshot(token)
	var cached Snapshot
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Logger.Warn().Err(err).Msg("snapshot cache read failed")
	} else if hit {
		obs.ObserveSnapshot("cache")
		return cached, nil
	}
	raw, lines, err := s.Store.GetByShareToken(ctx, token)
	if err != nil {
		return Snapshot{}, mapReadError(err)
	}
	snap := BuildSnapshot(raw, lines, s.Options)
	if err := s.Cache.SetJSON(ctx, key, snap); err != nil {
		s.Logger.Warn().Err(err).Msg("snapshot cache write failed")
	}
	obs.ObserveSnapshot("public")
	return snap, nil
}

// Quote prices an unsaved proposal without touching storage.
func (s *Service) Quote(_ context.Context, in Input) (Quote, error) {
	if err := validatePayment(in.Payment); err != nil {
		return Quote{}, err
	}
	if err := validateLines(in.Services); err != nil {
		return Quote{}, err
	}
	lines := buildLines(in.Services)
	summary := pricing.Summarize(pricingLines(lines), normalizePayment(in.Payment).Terms())
	q := Quote{Services: lines, Totals: totalsFrom(summary)}
	if rate, ok := pricing.InterestRate(summary.TotalCash, summary.TotalInstallment); ok {
		q.InterestRate = &rate
	}
	return q, nil
}

func (s *Service) load(ctx context.Context, owner, id string) (RawProposal, []RawServiceLine, error) {
	if err := checkOwner(owner); err != nil {
		return RawProposal{}, nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return RawProposal{}, nil, common.NotFound("proposal")
	}
	raw, lines, err := s.Store.Get(ctx, owner, id)
	if err != nil {
		return RawProposal{}, nil, mapReadError(err)
	}
	return raw, lines, nil
}

func (s *Service) resolveClient(ctx context.Context, owner string, in Input) (*string, error) {
	if in.NewClient != nil && strings.TrimSpace(in.NewClient.Name) != "" {
		if s.Clients == nil {
			return nil, errors.New("proposal: client resolver not configured")
		}
		c, _, err := s.Clients.FindOrCreate(ctx, owner, client.Input(*in.NewClient))
		if err != nil {
			return nil, err
		}
		return &c.ID, nil
	}
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return nil, nil
	}
	if s.Clients == nil {
		return nil, errors.New("proposal: client resolver not configured")
	}
	if _, err := s.Clients.Get(ctx, owner, clientID); err != nil {
		return nil, err
	}
	return &clientID, nil
}

func (s *Service) fromRaw(raw RawProposal, rawLines []RawServiceLine) Proposal {
	snap := BuildSnapshot(raw, rawLines, s.Options)
	return Proposal{
		ID:                snap.ID,
		Title:             snap.Title,
		Amount:            snap.Amount,
		ClientID:          cloneString(raw.ClientID),
		Status:            snap.Status,
		Owner:             raw.Owner,
		Notes:             snap.Notes,
		ExpectedCloseDate: snap.ExpectedCloseDate,
		ShareToken:        snap.ShareToken,
		Payment:           snap.Payment,
		Validity:          snap.Validity,
		Theme:             snap.Theme,
		Services:          snap.Services,
		CreatedAt:         snap.CreatedAt,
		UpdatedAt:         snap.UpdatedAt,
	}
}

func (s *Service) link(token string) ShareLink {
	base := strings.TrimRight(s.PublicBaseURL, "/")
	return ShareLink{Token: token, URL: base + "/proposta/" + token}
}

func (s *Service) emit(ctx context.Context, topic, id string, payload events.ProposalPayload) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, id, payload); err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Str("proposal_id", id).Msg("emit proposal event")
	}
}

func (s *Service) invalidate(ctx context.Context, owner, shareToken string) {
	if err := s.Cache.Delete(ctx, cache.KeyPublicSnapshot(shareToken), cache.KeyDashboard(owner)); err != nil {
		s.Logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}

// SharedTokens returns the share tokens of owner's proposals addressed to clientID. Lookup
// failures are logged and yield no tokens.
func (s *Service) SharedTokens(ctx context.Context, owner, clientID string) []string {
	tokens, err := s.Store.SharedTokensByClient(ctx, owner, clientID)
	if err != nil {
		s.Logger.Warn().Err(err).Str("client_id", clientID).Msg("list shared proposals of client")
		return nil
	}
	return tokens
}

// ForgetShared drops the cached public snapshots of the given share tokens.
func (s *Service) ForgetShared(ctx context.Context, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	keys := make([]string, 0, len(tokens))
	for _, token := range tokens {
		keys = append(keys, cache.KeyPublicSnapshot(token))
	}
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		s.Logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}

// assemble builds the stored form of in. Amount is the computed subtotal.
func assemble(owner string, in Input, clientID *string) Proposal {
	lines := buildLines(in.Services)
	payment := normalizePayment(in.Payment)
	summary := pricing.Summarize(pricingLines(lines), payment.Terms())
	validity := in.Validity
	if validity.Days < 0 {
		validity.Days = 0
	}
	return Proposal{
		Title:             strings.TrimSpace(in.Title),
		Amount:            summary.Subtotal,
		ClientID:          clientID,
		Owner:             owner,
		Notes:             optionalString(in.Notes),
		ExpectedCloseDate: cloneTime(in.ExpectedCloseDate),
		Payment:           payment,
		Validity:          validity,
		Theme: Theme{
			LogoURL:       strings.TrimSpace(in.LogoURL),
			GradientTheme: ParseGradientTheme(in.GradientTheme),
		},
		Services: lines,
	}
}

// checkAmount rejects proposals whose computed subtotal does not fit the amount column.
func checkAmount(p Proposal) error {
	if p.Amount > MaxMoney {
		return common.ValidationError("services", "proposal total is out of range")
	}
	return nil
}

func totalsFrom(s pricing.Summary) Totals {
	return Totals{
		OneTimeTotal:     s.OneTimeTotal,
		MonthlyTotal:     s.MonthlyTotal,
		Subtotal:         s.Subtotal,
		TotalCash:        s.TotalCash,
		TotalInstallment: s.TotalInstallment,
	}
}

func checkOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return common.Unauthorized()
	}
	return nil
}

func mapReadError(err error) error {
	if errors.Is(err, ErrNotFound) || common.IsNoRows(err) {
		return common.NotFound("proposal")
	}
	return err
}

func mapWriteError(err error) error {
	switch {
	case common.IsForeignKeyViolation(err):
		return common.NewAppError("BAD_REQUEST", "referenced client or service does not exist", http.StatusBadRequest, err)
	case common.IsUniqueViolation(err):
		return common.NewAppError("CONFLICT", "proposal conflicts with an existing record", http.StatusConflict, err)
	}
	return err
}
