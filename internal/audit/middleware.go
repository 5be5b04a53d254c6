package audit

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/obs"
)

// HTTPRecorder records an audit entry after the wrapped handler has responded.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// HTTPConfig customises the entry produced for a route.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
	MetadataFunc    func(*http.Request, int) map[string]any
}

// Middleware returns a chi middleware that records cfg for every request it wraps.
func (rec HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if rec.Service == nil || !rec.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}

			sr := obs.NewStatusRecorder(w)
			next.ServeHTTP(sr, req)

			resourceID := ""
			if cfg.ResourceIDParam != "" {
				resourceID = chi.URLParam(req, cfg.ResourceIDParam)
			}
			var metadata []byte
			if cfg.MetadataFunc != nil {
				if payload := cfg.MetadataFunc(req, sr.Status()); payload != nil {
					metadata, _ = json.Marshal(payload)
				}
			}
			err := rec.Service.Record(req.Context(), actorOf(req), cfg.Action, cfg.ResourceType, resourceID, req, sr.Status(), metadata)
			if err != nil && rec.OnError != nil {
				rec.OnError(err)
			}
		})
	}
}

// Mutations records every non-GET request passing through it, deriving the action from the
// matched route.
func (rec HTTPRecorder) Mutations(next http.Handler) http.Handler {
	record := rec.Middleware(HTTPConfig{ResourceIDParam: "id"})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, req)
		default:
			record.ServeHTTP(w, req)
		}
	})
}

func actorOf(req *http.Request) Actor {
	if userID, ok := common.UserID(req.Context()); ok {
		return Actor{Kind: ActorKindUser, UserID: userID}
	}
	return Actor{Kind: ActorKindAnonymous}
}
