package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-propostas/internal/common"
)

// ErrNotFound is returned by stores when no client matches.
var ErrNotFound = errors.New("client not found")

// Client is a customer record owned by a user.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Company   *string   `json:"company"`
	Phone     *string   `json:"phone"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input captures the writable client fields.
type Input struct {
	Name    string
	Email   string
	Company string
	Phone   string
}

// ListParams filters the client list.
type ListParams struct {
	Query string
	Page  int
	Limit int
}

// Store is the persistence contract of the client service.
type Store interface {
	Create(ctx context.Context, owner string, in Input) (Client, error)
	Get(ctx context.Context, owner, id string) (Client, error)
	FindByEmail(ctx context.Context, owner, email string) (Client, error)
	List(ctx context.Context, owner string, params ListParams) ([]Client, int64, error)
	Update(ctx context.Context, owner, id string, in Input) (Client, error)
	Delete(ctx context.Context, owner, id string) error
}

// SharedSnapshots exposes the cached public views that embed a client's details.
type SharedSnapshots interface {
	SharedTokens(ctx context.Context, owner, clientID string) []string
	ForgetShared(ctx context.Context, tokens []string)
}

// Service implements client management on top of a Store. When Snapshots is set, updates
// and deletes drop the cached public snapshots of the client's shared proposals.
type Service struct {
	Store     Store
	Snapshots SharedSnapshots
}

// Create inserts a client. Duplicate emails for the same owner are rejected.
func (s *Service) Create(ctx context.Context, owner string, in Input) (Client, error) {
	if err := checkOwner(owner); err != nil {
		return Client{}, err
	}
	in, err := normalize(in)
	if err != nil {
		return Client{}, err
	}
	created, err := s.Store.Create(ctx, owner, in)
	if err != nil {
		return Client{}, mapWriteError(err)
	}
	return created, nil
}

// FindOrCreate returns the owner's client with the same email (case-insensitive) or creates it.
// Inputs without an email always create a new client.
func (s *Service) FindOrCreate(ctx context.Context, owner string, in Input) (Client, bool, error) {
	if err := checkOwner(owner); err != nil {
		return Client{}, false, err
	}
	in, err := normalize(in)
	if err != nil {
		return Client{}, false, err
	}
	if in.Email != "" {
		existing, err := s.Store.FindByEmail(ctx, owner, in.Email)
		switch {
		case err == nil:
			return existing, false, nil
		case !errors.Is(err, ErrNotFound):
			return Client{}, false, fmt.Errorf("find client by email: %w", err)
		}
	}
	created, err := s.Store.Create(ctx, owner, in)
	if err != nil {
		if common.IsUniqueViolation(err) && in.Email != "" {
			// lost a race with a concurrent insert
			existing, findErr := s.Store.FindByEmail(ctx, owner, in.Email)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return Client{}, false, mapWriteError(err)
	}
	return created, true, nil
}

// Get returns a single client.
func (s *Service) Get(ctx context.Context, owner, id string) (Client, error) {
	if err := checkOwner(owner); err != nil {
		return Client{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return Client{}, common.NotFound("client")
	}
	c, err := s.Store.Get(ctx, owner, id)
	if err != nil {
		return Client{}, mapReadError(err)
	}
	return c, nil
}

// List returns a page of clients matching the optional search query.
func (s *Service) List(ctx context.Context, owner string, params ListParams) ([]Client, int64, error) {
	if err := checkOwner(owner); err != nil {
		return nil, 0, err
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

// Update replaces the writable fields of a client.
func (s *Service) Update(ctx context.Context, owner, id string, in Input) (Client, error) {
	if err := checkOwner(owner); err != nil {
		return Client{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return Client{}, common.NotFound("client")
	}
	in, err := normalize(in)
	if err != nil {
		return Client{}, err
	}
	updated, err := s.Store.Update(ctx, owner, id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Client{}, common.NotFound("client")
		}
		return Client{}, mapWriteError(err)
	}
	if s.Snapshots != nil {
		s.Snapshots.ForgetShared(ctx, s.Snapshots.SharedTokens(ctx, owner, id))
	}
	return updated, nil
}

// Delete removes a client. Proposals referencing it keep existing without a client.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.NotFound("client")
	}
	// Deleting detaches the client from its proposals, so collect their tokens first.
	var tokens []string
	if s.Snapshots != nil {
		tokens = s.Snapshots.SharedTokens(ctx, owner, id)
	}
	if err := s.Store.Delete(ctx, owner, id); err != nil {
		return mapReadError(err)
	}
	if s.Snapshots != nil {
		s.Snapshots.ForgetShared(ctx, tokens)
	}
	return nil
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Company = strings.TrimSpace(in.Company)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return in, common.ValidationError("name", "name is required")
	}
	return in, nil
}

func checkOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return common.Unauthorized()
	}
	return nil
}

func mapReadError(err error) error {
	if errors.Is(err, ErrNotFound) || common.IsNoRows(err) {
		return common.NotFound("client")
	}
	return err
}

func mapWriteError(err error) error {
	if common.IsUniqueViolation(err) {
		return common.NewAppError("CONFLICT", "a client with this email already exists", http.StatusConflict, err)
	}
	return err
}
