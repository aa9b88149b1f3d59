package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkowalski/pimpmyprompt/internal/domain"
	"github.com/pkowalski/pimpmyprompt/internal/identity"
	"github.com/pkowalski/pimpmyprompt/internal/store"
)

type createChatRequest struct {
	Title string `json:"title"`
}

// HandleCreateChat serves POST /chats.
func (h *Handler) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	chat := &domain.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: timeNow(),
	}
	if err := h.repo.CreateChat(r.Context(), chat); err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to create chat", err.Error())
		return
	}

	JSON(w, http.StatusCreated, chat)
}

// HandleListChats serves GET /chats. Results are always scoped to the
// authenticated user; the legacy user_id query parameter is accepted but
// must match.
func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	if q := r.URL.Query().Get("user_id"); q != "" && q != userID {
		Error(w, http.StatusForbidden, "cannot list another user's chats")
		return
	}

	chats, err := h.repo.ListChats(r.Context(), userID)
	if err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to list chats", err.Error())
		return
	}
	if chats == nil {
		chats = []*domain.Chat{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

// HandleDeleteChat serves DELETE /chats?chat_id=. Messages are removed
// before the chat row, scoped to the requesting user.
func (h *Handler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		Error(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	err := h.repo.DeleteChat(r.Context(), chatID, userID)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to delete chat", err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type appendMessageRequest struct {
	ChatID  string `json:"chat_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HandleAppendMessage serves POST /messages.
func (h *Handler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		Error(w, http.StatusBadRequest, "chat_id is required")
		return
	}
	if req.Role != domain.RoleUser && req.Role != domain.RoleBot {
		Error(w, http.StatusBadRequest, "role must be \"user\" or \"bot\"")
		return
	}
	if req.Content == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    req.ChatID,
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: timeNow(),
	}
	if err := h.repo.AppendMessage(r.Context(), msg); err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to append message", err.Error())
		return
	}

	JSON(w, http.StatusCreated, msg)
}

// HandleListMessages serves GET /messages?chat_id=.
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		Error(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	msgs, err := h.repo.ListMessages(r.Context(), chatID)
	if err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to list messages", err.Error())
		return
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}
