package proposal

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-propostas/internal/cache"
	"github.com/noah-isme/backend-propostas/internal/client"
	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/events"
	"github.com/noah-isme/backend-propostas/internal/pricing"
)

const testOwner = "11111111-1111-1111-1111-111111111111"

type memStore struct {
	mu        sync.Mutex
	proposals map[string]Proposal
	byToken   int
}

func newMemStore() *memStore {
	return &memStore{proposals: map[string]Proposal{}}
}

func (m *memStore) Insert(_ context.Context, p Proposal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	for i := range p.Services {
		p.Services[i].ID = uuid.NewString()
	}
	m.proposals[p.ID] = p
	return p.ID, nil
}

func (m *memStore) Replace(_ context.Context, p Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.proposals[p.ID]
	if !ok || current.Owner != p.Owner {
		return ErrNotFound
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.ShareToken = current.ShareToken
	m.proposals[p.ID] = p
	return nil
}

func (m *memStore) Get(_ context.Context, owner, id string) (RawProposal, []RawServiceLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Owner != owner {
		return RawProposal{}, nil, ErrNotFound
	}
	raw, lines := toRaw(p)
	return raw, lines, nil
}

func (m *memStore) GetByShareToken(_ context.Context, token string) (RawProposal, []RawServiceLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken++
	for _, p := range m.proposals {
		if p.ShareToken != nil && *p.ShareToken == token {
			raw, lines := toRaw(p)
			return raw, lines, nil
		}
	}
	return RawProposal{}, nil, ErrNotFound
}

func (m *memStore) List(_ context.Context, owner string, params ListParams) ([]Summary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Summary
	for _, p := range m.proposals {
		if p.Owner != owner {
			continue
		}
		if params.Status != "" && p.Status != params.Status {
			continue
		}
		if params.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(params.Query)) {
			continue
		}
		out = append(out, Summary{ID: p.ID, Title: p.Title, Amount: p.Amount, Status: p.Status, ClientID: p.ClientID, Shared: p.ShareToken != nil, CreatedAt: p.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (m *memStore) SetStatus(_ context.Context, owner, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Owner != owner {
		return ErrNotFound
	}
	p.Status = status
	m.proposals[id] = p
	return nil
}

func (m *memStore) SetShareToken(_ context.Context, owner, id, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Owner != owner {
		return "", ErrNotFound
	}
	if p.ShareToken == nil {
		p.ShareToken = &token
		m.proposals[id] = p
	}
	return *p.ShareToken, nil
}

func (m *memStore) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Owner != owner {
		return ErrNotFound
	}
	delete(m.proposals, id)
	return nil
}

func (m *memStore) SharedTokensByClient(_ context.Context, owner, clientID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tokens []string
	for _, p := range m.proposals {
		if p.Owner == owner && p.ClientID != nil && *p.ClientID == clientID && p.ShareToken != nil {
			tokens = append(tokens, *p.ShareToken)
		}
	}
	return tokens, nil
}

func toRaw(p Proposal) (RawProposal, []RawServiceLine) {
	paymentType := string(p.Payment.Type)
	theme := string(p.Theme.GradientTheme)
	logo := p.Theme.LogoURL
	enabled := p.Validity.Enabled
	raw := RawProposal{
		ID:                     p.ID,
		Title:                  p.Title,
		Amount:                 p.Amount,
		ClientID:               p.ClientID,
		Status:                 string(p.Status),
		Owner:                  p.Owner,
		Notes:                  p.Notes,
		ExpectedCloseDate:      p.ExpectedCloseDate,
		ShareToken:             p.ShareToken,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
		PaymentType:            &paymentType,
		CashDiscountPercentage: p.Payment.CashDiscountPercentage,
		InstallmentNumber:      p.Payment.InstallmentNumber,
		InstallmentValue:       p.Payment.InstallmentValue,
		ManualInstallmentTotal: p.Payment.ManualInstallmentTotal,
		ValidityEnabled:        &enabled,
		ValidityDays:           p.Validity.Days,
		LogoURL:                &logo,
		GradientTheme:          &theme,
	}
	if p.ClientID != nil {
		raw.Client = &RawClient{ID: *p.ClientID, Name: strPtr("Cliente " + *p.ClientID)}
	}
	lines := make([]RawServiceLine, 0, len(p.Services))
	for _, l := range p.Services {
		name, desc, dtype, cat, icon, billing := l.Name, l.Description, string(l.DiscountType), l.Category, l.Icon, string(l.BillingType)
		isCustom := l.IsCustom
		var custom any
		if l.CustomPrice != nil {
			custom = *l.CustomPrice
		}
		lines = append(lines, RawServiceLine{
			ID: l.ID, ProposalID: p.ID, Name: &name, Description: &desc, BasePrice: l.BasePrice,
			CustomPrice: custom, Quantity: l.Quantity, Discount: l.Discount,
			DiscountPercentage: l.DiscountPercentage, DiscountType: &dtype, Features: l.Features,
			Category: &cat, Icon: &icon, IsCustom: &isCustom, BillingType: &billing,
		})
	}
	return raw, lines
}

type stubClients struct {
	created []client.Input
	known   map[string]bool
}

func (s *stubClients) FindOrCreate(_ context.Context, _ string, in client.Input) (client.Client, bool, error) {
	s.created = append(s.created, in)
	return client.Client{ID: "22222222-2222-2222-2222-222222222222", Name: in.Name}, true, nil
}

func (s *stubClients) Get(_ context.Context, _ string, id string) (client.Client, error) {
	if !s.known[id] {
		return client.Client{}, common.NotFound("client")
	}
	return client.Client{ID: id}, nil
}

type recordedEvent struct {
	topic   string
	id      string
	payload events.ProposalPayload
}

type stubEmitter struct {
	events []recordedEvent
}

func (s *stubEmitter) Emit(_ context.Context, topic, id string, payload any) (events.Event, error) {
	s.events = append(s.events, recordedEvent{topic: topic, id: id, payload: payload.(events.ProposalPayload)})
	return events.Event{Topic: topic, AggregateID: id}, nil
}

func (s *stubEmitter) topics() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.topic)
	}
	return out
}

type fixture struct {
	svc     *Service
	store   *memStore
	clients *stubClients
	events  *stubEmitter
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := fixture{
		store:   newMemStore(),
		clients: &stubClients{known: map[string]bool{"33333333-3333-3333-3333-333333333333": true}},
		events:  &stubEmitter{},
		redis:   mr,
	}
	f.svc = &Service{
		Store:         f.store,
		Clients:       f.clients,
		Events:        f.events,
		Cache:         cache.New(rdb, time.Minute),
		PublicBaseURL: "https://app.example.com/",
	}
	return f
}

func sampleInput() Input {
	custom := 250.0
	return Input{
		Title: "Site institucional",
		Payment: Payment{
			Type:                   PaymentInstallment,
			CashDiscountPercentage: 10,
			InstallmentNumber:      12,
			InstallmentValue:       130,
		},
		Validity:      Validity{Enabled: true, Days: 15},
		GradientTheme: "blue",
		Services: []LineInput{
			{Name: "Desenvolvimento", BasePrice: 1000, Quantity: 1, DiscountType: pricing.DiscountPercentage, DiscountPercentage: 10},
			{Name: "Hospedagem", BasePrice: 200, CustomPrice: &custom, Quantity: 2, BillingType: pricing.BillingMonthly},
		},
	}
}

func requireAppError(t *testing.T, err error, status int) *common.AppError {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, status, appErr.HTTPStatus)
	return appErr
}

func TestCreateComputesAmountAndDerivesDiscounts(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), testOwner, sampleInput())
	require.NoError(t, err)
	require.Equal(t, StatusCreated, p.Status)
	require.Equal(t, 1400.0, p.Amount)
	require.Equal(t, ThemeBlue, p.Theme.GradientTheme)
	require.Len(t, p.Services, 2)
	require.Equal(t, 100.0, p.Services[0].Discount)
	require.Equal(t, 10.0, p.Services[0].DiscountPercentage)
	require.Equal(t, DefaultCategory, p.Services[0].Category)
	require.Equal(t, []string{events.TopicProposalCreated}, f.events.topics())
	require.Equal(t, testOwner, f.events.events[0].payload.Owner)
}

func TestCreateDraftAndInlineClient(t *testing.T) {
	f := newFixture(t)
	in := sampleInput()
	in.Draft = true
	in.NewClient = &ClientInput{Name: "Maria", Email: "maria@example.com"}

	p, err := f.svc.Create(context.Background(), testOwner, in)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, p.Status)
	require.NotNil(t, p.ClientID)
	require.Equal(t, "22222222-2222-2222-2222-222222222222", *p.ClientID)
	require.Len(t, f.clients.created, 1)
	require.Equal(t, "maria@example.com", f.clients.created[0].Email)
}

func TestCreateValueDiscountDerivesPercentage(t *testing.T) {
	f := newFixture(t)
	in := sampleInput()
	in.Services = []LineInput{{Name: "Logo", BasePrice: 400, Quantity: 2, DiscountType: pricing.DiscountValue, Discount: 200, DiscountPercentage: 90}}

	p, err := f.svc.Create(context.Background(), testOwner, in)
	require.NoError(t, err)
	require.Equal(t, 200.0, p.Services[0].Discount)
	require.Equal(t, 25.0, p.Services[0].DiscountPercentage)
	require.Equal(t, 600.0, p.Amount)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := sampleInput()
	in.Payment.CashDiscountPercentage = 150
	appErr := requireAppError(t, mustFail(f.svc.Create(ctx, testOwner, in)), http.StatusUnprocessableEntity)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)

	in = sampleInput()
	in.Payment.InstallmentValue = -1
	requireAppError(t, mustFail(f.svc.Create(ctx, testOwner, in)), http.StatusUnprocessableEntity)

	in = sampleInput()
	in.Title = " "
	requireAppError(t, mustFail(f.svc.Create(ctx, testOwner, in)), http.StatusUnprocessableEntity)

	in = sampleInput()
	in.ClientID = "44444444-4444-4444-4444-444444444444"
	requireAppError(t, mustFail(f.svc.Create(ctx, testOwner, in)), http.StatusNotFound)

	requireAppError(t, mustFail(f.svc.Create(ctx, "", sampleInput())), http.StatusUnauthorized)
	require.Empty(t, f.store.proposals)
}

func TestCreateRejectsNumbersOutsideStorageRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(in *Input){
		"quantity past int32": func(in *Input) { in.Services[0].Quantity = 1 << 31 },
		"quantity over cap":   func(in *Input) { in.Services[0].Quantity = MaxQuantity + 1 },
		"base price":          func(in *Input) { in.Services[0].BasePrice = 1e14 },
		"custom price": func(in *Input) {
			huge := 1e13
			in.Services[1].CustomPrice = &huge
		},
		"discount":          func(in *Input) { in.Services[0].Discount = 1e13 },
		"installment value": func(in *Input) { in.Payment.InstallmentValue = 1e13 },
		"manual total":      func(in *Input) { in.Payment.ManualInstallmentTotal = 1e13 },
		"installments":      func(in *Input) { in.Payment.InstallmentNumber = 121 },
		"computed subtotal": func(in *Input) {
			in.Services[0].BasePrice = MaxMoney
			in.Services[0].DiscountPercentage = 0
			in.Services[0].Quantity = 2
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := sampleInput()
			mutate(&in)
			appErr := requireAppError(t, mustFail(f.svc.Create(ctx, testOwner, in)), http.StatusUnprocessableEntity)
			require.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
	require.Empty(t, f.store.proposals)

	in := sampleInput()
	in.Services[0].Quantity = MaxQuantity
	in.Services[0].BasePrice = 1
	_, err := f.svc.Create(ctx, testOwner, in)
	require.NoError(t, err)
}

func mustFail(_ Proposal, err error) error {
	return err
}

func TestGetIsOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "99999999-9999-9999-9999-999999999999", p.ID)
	requireAppError(t, err, http.StatusNotFound)
	_, err = f.svc.Get(ctx, testOwner, "nope")
	requireAppError(t, err, http.StatusNotFound)
}

func TestUpdateReplacesLinesAndKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, testOwner, p.ID, "negociando")
	require.NoError(t, err)

	in := sampleInput()
	in.Title = "Site v2"
	in.Services = in.Services[:1]
	updated, err := f.svc.Update(ctx, testOwner, p.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Site v2", updated.Title)
	require.Equal(t, StatusNegotiating, updated.Status)
	require.Len(t, updated.Services, 1)
	require.Equal(t, 900.0, updated.Amount)
	require.Contains(t, f.events.topics(), events.TopicProposalUpdated)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, testOwner, p.ID, "Perdida")
	requireAppError(t, err, http.StatusUnprocessableEntity)

	updated, err := f.svc.UpdateStatus(ctx, testOwner, p.ID, "Enviada")
	require.NoError(t, err)
	require.Equal(t, StatusSent, updated.Status)

	last := f.events.events[len(f.events.events)-1]
	require.Equal(t, events.TopicProposalStatusChanged, last.topic)
	require.Equal(t, "Enviada", last.payload.Status)
	require.Equal(t, "Criada", last.payload.FromStatus)

	// any status may follow any other
	back, err := f.svc.UpdateStatus(ctx, testOwner, p.ID, "Rascunho")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, back.Status)
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)
	_, err = f.svc.Share(ctx, testOwner, p.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, testOwner, p.ID, "Aprovada")
	require.NoError(t, err)

	copied, err := f.svc.Duplicate(ctx, testOwner, p.ID, DuplicateInput{})
	require.NoError(t, err)
	require.NotEqual(t, p.ID, copied.ID)
	require.Equal(t, "Site institucional (Cópia)", copied.Title)
	require.Equal(t, StatusCreated, copied.Status)
	require.Nil(t, copied.ShareToken)
	require.Len(t, copied.Services, 2)
	require.Equal(t, p.Payment, copied.Payment)
	require.Equal(t, p.Validity, copied.Validity)
	require.NotEqual(t, p.Services[0].ID, copied.Services[0].ID)

	other, err := f.svc.Duplicate(ctx, testOwner, p.ID, DuplicateInput{Title: "Outra", ClientID: "33333333-3333-3333-3333-333333333333"})
	require.NoError(t, err)
	require.Equal(t, "Outra", other.Title)
	require.Equal(t, "33333333-3333-3333-3333-333333333333", *other.ClientID)

	last := f.events.events[len(f.events.events)-1]
	require.Equal(t, events.TopicProposalDuplicated, last.topic)
	require.Equal(t, p.ID, last.payload.SourceID)
}

func TestShareGeneratesTokenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)

	link, err := f.svc.Share(ctx, testOwner, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)
	require.Equal(t, "https://app.example.com/proposta/"+link.Token, link.URL)

	again, err := f.svc.Share(ctx, testOwner, p.ID)
	require.NoError(t, err)
	require.Equal(t, link.Token, again.Token)

	shared := 0
	for _, topic := range f.events.topics() {
		if topic == events.TopicProposalShared {
			shared++
		}
	}
	require.Equal(t, 1, shared)
}

func TestPublicSnapshotIsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)
	link, err := f.svc.Share(ctx, testOwner, p.ID)
	require.NoError(t, err)

	snap, err := f.svc.PublicSnapshot(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, 1400.0, snap.Totals.Subtotal)
	require.Equal(t, 1560.0, snap.Totals.TotalInstallment)
	require.True(t, f.redis.Exists(cache.KeyPublicSnapshot(link.Token)))

	_, err = f.svc.PublicSnapshot(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, 1, f.store.byToken)

	in := sampleInput()
	in.Title = "Site atualizado"
	_, err = f.svc.Update(ctx, testOwner, p.ID, in)
	require.NoError(t, err)
	require.False(t, f.redis.Exists(cache.KeyPublicSnapshot(link.Token)))

	snap, err = f.svc.PublicSnapshot(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, "Site atualizado", snap.Title)
	require.Equal(t, 2, f.store.byToken)

	_, err = f.svc.PublicSnapshot(ctx, "unknown")
	requireAppError(t, err, http.StatusNotFound)
}

func TestForgetSharedDropsClientSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const clientID = "33333333-3333-3333-3333-333333333333"

	in := sampleInput()
	in.ClientID = clientID
	p, err := f.svc.Create(ctx, testOwner, in)
	require.NoError(t, err)
	link, err := f.svc.Share(ctx, testOwner, p.ID)
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)
	otherLink, err := f.svc.Share(ctx, testOwner, other.ID)
	require.NoError(t, err)

	for _, token := range []string{link.Token, otherLink.Token} {
		_, err = f.svc.PublicSnapshot(ctx, token)
		require.NoError(t, err)
	}

	tokens := f.svc.SharedTokens(ctx, testOwner, clientID)
	require.Equal(t, []string{link.Token}, tokens)
	require.Empty(t, f.svc.SharedTokens(ctx, "99999999-9999-9999-9999-999999999999", clientID))

	f.svc.ForgetShared(ctx, tokens)
	require.False(t, f.redis.Exists(cache.KeyPublicSnapshot(link.Token)))
	require.True(t, f.redis.Exists(cache.KeyPublicSnapshot(otherLink.Token)))
}

func TestSnapshotMatchesBuildSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)

	snap, err := f.svc.Snapshot(ctx, testOwner, p.ID)
	require.NoError(t, err)
	raw, lines, err := f.store.Get(ctx, testOwner, p.ID)
	require.NoError(t, err)
	require.Equal(t, BuildSnapshot(raw, lines, SnapshotOptions{}), snap)
	require.Equal(t, PlaceholderClientName, snap.Client.Name)
	require.Equal(t, DefaultLogoURL, snap.Theme.ResolvedLogoURL)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, testOwner, p.ID))
	requireAppError(t, f.svc.Delete(ctx, testOwner, p.ID), http.StatusNotFound)
	require.Contains(t, f.events.topics(), events.TopicProposalDeleted)
}

func TestListValidatesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, testOwner, sampleInput())
	require.NoError(t, err)
	draft := sampleInput()
	draft.Draft = true
	draft.Title = "Rascunho de app"
	_, err = f.svc.Create(ctx, testOwner, draft)
	require.NoError(t, err)

	items, total, err := f.svc.List(ctx, testOwner, ListParams{Status: StatusDraft})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Rascunho de app", items[0].Title)

	_, _, err = f.svc.List(ctx, testOwner, ListParams{Status: "Perdida"})
	requireAppError(t, err, http.StatusUnprocessableEntity)
	_, _, err = f.svc.List(ctx, testOwner, ListParams{ClientID: "x"})
	requireAppError(t, err, http.StatusUnprocessableEntity)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), sampleInput())
	require.NoError(t, err)
	require.Equal(t, Totals{OneTimeTotal: 900, MonthlyTotal: 500, Subtotal: 1400, TotalCash: 1260, TotalInstallment: 1560}, q.Totals)
	require.NotNil(t, q.InterestRate)
	require.InDelta(t, 23.81, *q.InterestRate, 0.001)

	empty, err := f.svc.Quote(context.Background(), Input{})
	require.NoError(t, err)
	require.Nil(t, empty.InterestRate)
	require.Empty(t, empty.Services)

	in := sampleInput()
	in.Services[0].DiscountPercentage = 120
	_, err = f.svc.Quote(context.Background(), in)
	requireAppError(t, err, http.StatusUnprocessableEntity)
}
