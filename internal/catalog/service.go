package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-propostas/internal/cache"
	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/pricing"
)

// ErrNotFound is returned by stores when no catalog entry matches.
var ErrNotFound = errors.New("catalog service not found")

// CatalogService is a reusable offering that can be copied into proposal lines.
// Entries without CreatedBy are shared defaults visible to every user.
type CatalogService struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	BasePrice   decimal.Decimal     `json:"base_price"`
	Features    []string            `json:"features"`
	Category    *string             `json:"category"`
	Icon        *string             `json:"icon"`
	BillingType pricing.BillingType `json:"billing_type"`
	IsCustom    bool                `json:"is_custom"`
	CreatedBy   *string             `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Input captures the writable catalog fields.
type Input struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
	Features    []string
	Category    string
	Icon        string
	BillingType string
}

// Store is the persistence contract of the catalog.
type Store interface {
	// List returns the shared defaults plus the owner's own entries.
	List(ctx context.Context, owner string) ([]CatalogService, error)
	Create(ctx context.Context, owner string, in Input) (CatalogService, error)
	Update(ctx context.Context, owner, id string, in Input) (CatalogService, error)
	Delete(ctx context.Context, owner, id string) error
}

// Service orchestrates catalog persistence and the per-owner list cache.
type Service struct {
	store  Store
	cache  *cache.JSON
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Cache  *cache.JSON
	Logger zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, logger: cfg.Logger}, nil
}

// List returns the catalog visible to owner, served from cache when possible.
func (s *Service) List(ctx context.Context, owner string) ([]CatalogService, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	key := cache.KeyServiceList(owner)
	var cached []CatalogService
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}

	items, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if items == nil {
		items = []CatalogService{}
	}
	if err := s.cache.SetJSON(ctx, key, items); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return items, nil
}

// Create adds a custom entry owned by owner.
func (s *Service) Create(ctx context.Context, owner string, in Input) (CatalogService, error) {
	if err := checkOwner(owner); err != nil {
		return CatalogService{}, err
	}
	in, err := normalize(in)
	if err != nil {
		return CatalogService{}, err
	}
	created, err := s.store.Create(ctx, owner, in)
	if err != nil {
		return CatalogService{}, fmt.Errorf("create catalog service: %w", err)
	}
	s.invalidate(ctx, owner)
	return created, nil
}

// Update rewrites one of the owner's entries. Shared defaults are not editable.
func (s *Service) Update(ctx context.Context, owner, id string, in Input) (CatalogService, error) {
	if err := checkOwner(owner); err != nil {
		return CatalogService{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return CatalogService{}, common.NotFound("service")
	}
	in, err := normalize(in)
	if err != nil {
		return CatalogService{}, err
	}
	updated, err := s.store.Update(ctx, owner, id, in)
	if err != nil {
		return CatalogService{}, mapError(err)
	}
	s.invalidate(ctx, owner)
	return updated, nil
}

// Delete removes one of the owner's entries.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.NotFound("service")
	}
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return mapError(err)
	}
	s.invalidate(ctx, owner)
	return nil
}

func (s *Service) invalidate(ctx context.Context, owner string) {
	if err := s.cache.Delete(ctx, cache.KeyServiceList(owner)); err != nil {
		s.logger.Warn().Err(err).Str("owner", owner).Msg("catalog cache invalidation failed")
	}
}

// maxBasePrice is the largest value the NUMERIC(14,2) column holds.
var maxBasePrice = decimal.RequireFromString("999999999999.99")

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Input{}, common.ValidationError("name", "name is required")
	}
	if in.BasePrice.IsNegative() {
		return Input{}, common.ValidationError("base_price", "base_price must not be negative")
	}
	if in.BasePrice.GreaterThan(maxBasePrice) {
		return Input{}, common.ValidationError("base_price", "base_price is out of range")
	}
	in.BasePrice = in.BasePrice.Round(2)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Icon = strings.TrimSpace(in.Icon)
	in.BillingType = string(pricing.ParseBillingType(in.BillingType))
	features := make([]string, 0, len(in.Features))
	for _, f := range in.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	in.Features = features
	return in, nil
}

func checkOwner(owner string) error {
	if _, err := uuid.Parse(owner); err != nil {
		return common.Unauthorized()
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NotFound("service")
	}
	return common.NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
}
