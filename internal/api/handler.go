// Package api provides HTTP handlers for the PimpMyPrompt API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkowalski/pimpmyprompt/internal/identity"
	"github.com/pkowalski/pimpmyprompt/internal/provider"
	"github.com/pkowalski/pimpmyprompt/internal/refine"
	"github.com/pkowalski/pimpmyprompt/internal/store"
)

// Handler provides the HTTP handlers and their shared dependencies.
type Handler struct {
	repo       store.Repository
	registry   *provider.Registry
	gateways   provider.Set
	refiner    *refine.Service
	dailyLimit int
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, registry *provider.Registry, gateways provider.Set, refiner *refine.Service, dailyLimit int) *Handler {
	return &Handler{
		repo:       repo,
		registry:   registry,
		gateways:   gateways,
		refiner:    refiner,
		dailyLimit: dailyLimit,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/providers", h.HandleListProviders)
	r.Post("/chat/{provider}", h.HandleChat)
	r.Post("/clarify", h.HandleClarify)

	r.Post("/chats", identity.RequireUser(h.HandleCreateChat))
	r.Get("/chats", identity.RequireUser(h.HandleListChats))
	r.Delete("/chats", identity.RequireUser(h.HandleDeleteChat))

	r.Post("/messages", identity.RequireUser(h.HandleAppendMessage))
	r.Get("/messages", identity.RequireUser(h.HandleListMessages))

	r.Get("/usage", identity.RequireUser(h.HandleGetUsage))
	r.Post("/usage", identity.RequireUser(h.HandleIncrementUsage))

	r.Route("/refine", func(r chi.Router) {
		r.Post("/question", identity.RequireUser(h.HandleRefineQuestion))
		r.Post("/answer", identity.RequireUser(h.HandleRefineAnswer))
		r.Post("/select", identity.RequireUser(h.HandleRefineSelect))
		r.Post("/reset", identity.RequireUser(h.HandleRefineReset))
		r.Get("/session", identity.RequireUser(h.HandleRefineSession))
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorWithDetails writes a JSON error response with a details field.
func ErrorWithDetails(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, map[string]string{"error": message, "details": details})
}

// HandleListProviders returns the static provider catalog.
func (h *Handler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"response_providers": h.registry.ListResponseProviders(),
		"question_providers": h.registry.ListQuestionProviders(),
	})
}
