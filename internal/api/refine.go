package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pkowalski/pimpmyprompt/internal/identity"
	"github.com/pkowalski/pimpmyprompt/internal/refine"
)

type refineQuestionRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type refineAnswerRequest struct {
	Message string `json:"message"`
}

type refineSelectRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// HandleRefineQuestion serves POST /refine/question: starts a refinement
// flow with the user's raw question.
func (h *Handler) HandleRefineQuestion(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req refineQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	update, err := h.refiner.SubmitQuestion(r.Context(), userID, req.Message, req.Provider, req.Model)
	if err != nil {
		writeRefineError(w, err)
		return
	}
	JSON(w, http.StatusOK, update)
}

// HandleRefineAnswer serves POST /refine/answer: answers the current
// clarification question.
func (h *Handler) HandleRefineAnswer(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req refineAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	update, err := h.refiner.SubmitAnswer(r.Context(), userID, req.Message)
	if err != nil {
		writeRefineError(w, err)
		return
	}
	JSON(w, http.StatusOK, update)
}

// HandleRefineSelect serves POST /refine/select: picks the final
// provider/model and issues the final call.
func (h *Handler) HandleRefineSelect(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req refineSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Provider == "" {
		Error(w, http.StatusBadRequest, "provider is required")
		return
	}

	update, err := h.refiner.SelectModel(r.Context(), userID, req.Provider, req.Model)
	if err != nil {
		writeRefineError(w, err)
		return
	}
	JSON(w, http.StatusOK, update)
}

// HandleRefineReset serves POST /refine/reset.
func (h *Handler) HandleRefineReset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	JSON(w, http.StatusOK, h.refiner.Reset(userID))
}

// HandleRefineSession serves GET /refine/session.
func (h *Handler) HandleRefineSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	JSON(w, http.StatusOK, h.refiner.Snapshot(userID))
}

func writeRefineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, refine.ErrBlankInput),
		errors.Is(err, refine.ErrInvalidPhase),
		errors.Is(err, refine.ErrUnknownProvider):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, refine.ErrBusy),
		errors.Is(err, refine.ErrSuperseded):
		Error(w, http.StatusConflict, err.Error())
	default:
		ErrorWithDetails(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}
