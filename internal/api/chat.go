package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkowalski/pimpmyprompt/internal/prompt"
	"github.com/pkowalski/pimpmyprompt/internal/provider"
)

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`

	// Legacy action-based shape, accepted when message is absent.
	Action   string   `json:"action"`
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

// HandleChat serves POST /chat/{provider}. The prompt text is sent to the
// named provider; when the response parses into question blocks the handler
// returns {questions}, otherwise {response} with the raw text.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")
	gw, ok := h.gateways.Lookup(providerID)
	if !ok {
		Error(w, http.StatusBadRequest, "unsupported provider")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, ok := h.resolveChatPrompt(w, req)
	if !ok {
		return
	}

	model := req.Model
	if model == "" {
		model = h.defaultModel(providerID)
	}

	raw, err := gw.Complete(r.Context(), text, model)
	if err != nil {
		if ce, ok := provider.AsCallError(err); ok {
			ErrorWithDetails(w, http.StatusInternalServerError, "provider call failed", ce.Message)
			return
		}
		Error(w, http.StatusInternalServerError, "provider call failed")
		return
	}

	if questions := prompt.ParseQuestionsWithOptions(raw); len(questions) > 0 {
		JSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"response": raw})
}

// resolveChatPrompt builds the prompt text from either the plain message
// shape or the legacy action shape. Writes the error response itself and
// returns ok=false when the request is invalid.
func (h *Handler) resolveChatPrompt(w http.ResponseWriter, req chatRequest) (string, bool) {
	if strings.TrimSpace(req.Message) != "" {
		return req.Message, true
	}

	switch req.Action {
	case "clarify":
		if strings.TrimSpace(req.Question) == "" {
			Error(w, http.StatusBadRequest, "question is required")
			return "", false
		}
		return prompt.BuildClarifyPrompt(req.Question), true
	case "improve":
		if strings.TrimSpace(req.Question) == "" {
			Error(w, http.StatusBadRequest, "question is required")
			return "", false
		}
		return prompt.BuildImprovePrompt(req.Question, req.Answers), true
	default:
		Error(w, http.StatusBadRequest, "invalid or missing action")
		return "", false
	}
}

func (h *Handler) defaultModel(providerID string) string {
	if qp, ok := h.registry.QuestionProvider(providerID); ok {
		return qp.Model
	}
	if d, ok := h.registry.ResponseProvider(providerID); ok {
		return d.RecommendedModelID
	}
	return ""
}

type clarifyRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// HandleClarify serves POST /clarify: a direct dispatch to the named vendor
// adapter. All three fields are required.
func (h *Handler) HandleClarify(w http.ResponseWriter, r *http.Request) {
	var req clarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if strings.TrimSpace(req.Provider) == "" {
		Error(w, http.StatusBadRequest, "provider is required")
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		Error(w, http.StatusBadRequest, "model is required")
		return
	}

	gw, ok := h.gateways.Lookup(req.Provider)
	if !ok {
		Error(w, http.StatusBadRequest, "unsupported provider")
		return
	}

	raw, err := gw.Complete(r.Context(), req.Message, req.Model)
	if err != nil {
		if ce, ok := provider.AsCallError(err); ok {
			ErrorWithDetails(w, http.StatusInternalServerError, "provider call failed", ce.Message)
			return
		}
		Error(w, http.StatusInternalServerError, "provider call failed")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"response": raw})
}
