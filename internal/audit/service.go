package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/obs"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindUser is an authenticated account holder.
	ActorKindUser ActorKind = "user"
	// ActorKindSystem is an internal job such as the PDF worker.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous is a visitor of a public share link.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes who performed the action.
type Actor struct {
	Kind   ActorKind
	UserID string
}

// Entry is one row of the audit trail.
type Entry struct {
	ID           string          `json:"id"`
	ActorKind    ActorKind       `json:"actor_kind"`
	ActorUserID  *string         `json:"actor_user_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Route        *string         `json:"route,omitempty"`
	Status       int             `json:"status"`
	IP           *string         `json:"ip,omitempty"`
	UserAgent    *string         `json:"user_agent,omitempty"`
	RequestID    *string         `json:"request_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Store persists and lists audit entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	ListByActor(ctx context.Context, userID string, limit, offset int) ([]Entry, int64, error)
}

// Service records audit entries for mutating proposal workflows.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

// Record persists an entry describing req when auditing is enabled.
func (s Service) Record(ctx context.Context, actor Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() > s.SamplingRate {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}
	return s.Store.Insert(ctx, NewEntry(actor, action, resourceType, resourceID, req, status, metadata))
}

// List returns the caller's own audit trail, newest first.
func (s Service) List(ctx context.Context, userID string, page, perPage int) ([]Entry, int64, error) {
	if s.Store == nil {
		return nil, 0, errors.New("audit: store not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, 0, common.Unauthorized()
	}
	return s.Store.ListByActor(ctx, userID, perPage, (page-1)*perPage)
}

// NewEntry derives an Entry from the handled request. Blank action and resource type are
// built from the matched route, e.g. "PATCH /api/v1/proposals/{id}/status" and
// "proposals.{id}.status".
func NewEntry(actor Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) Entry {
	route := ""
	if rc := chi.RouteContext(req.Context()); rc != nil {
		route = rc.RoutePattern()
	}
	if route == "" {
		route = obs.RoutePatternFromContext(req.Context())
	}
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	if status == 0 {
		status = http.StatusOK
	}
	requestID := middleware.GetReqID(req.Context())
	if requestID == "" {
		requestID = req.Header.Get(middleware.RequestIDHeader)
	}

	e := Entry{
		ActorKind:    normalizeActorKind(actor.Kind),
		Action:       buildAction(action, req.Method, route),
		ResourceType: buildResource(resourceType, route),
		ResourceID:   optional(resourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Route:        optional(route),
		Status:       status,
		IP:           optional(common.ClientIP(req)),
		UserAgent:    optional(req.Header.Get("User-Agent")),
		RequestID:    optional(requestID),
		Metadata:     metadataOrQuery(metadata, req.URL.RawQuery),
	}
	if e.ActorKind == ActorKindUser {
		e.ActorUserID = optional(actor.UserID)
	}
	return e
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	trimmed := strings.Trim(strings.TrimSpace(route), "/")
	if trimmed == "" {
		return "unknown"
	}
	segments := strings.Split(trimmed, "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		segments = segments[2:]
	}
	return strings.Join(segments, ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindUser, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func metadataOrQuery(metadata []byte, query string) json.RawMessage {
	if len(metadata) > 0 && json.Valid(metadata) {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
