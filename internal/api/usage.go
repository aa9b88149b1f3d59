package api

import (
	"net/http"
	"time"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
	"github.com/pkowalski/pimpmyprompt/internal/identity"
	"github.com/pkowalski/pimpmyprompt/internal/store"
)

// timeNow is overridable in tests.
var timeNow = time.Now

// HandleGetUsage serves GET /usage: the authenticated user's position
// against the daily request quota.
func (h *Handler) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	now := timeNow()

	count, err := h.repo.GetUsage(r.Context(), userID, store.DayKey(now))
	if err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to read usage", err.Error())
		return
	}

	JSON(w, http.StatusOK, domain.NewUsageStatus(count, h.dailyLimit, now))
}

// HandleIncrementUsage serves POST /usage: counts one request against the
// authenticated user's daily quota and returns the updated status.
func (h *Handler) HandleIncrementUsage(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	now := timeNow()

	count, err := h.repo.IncrementUsage(r.Context(), userID, store.DayKey(now))
	if err != nil {
		ErrorWithDetails(w, http.StatusInternalServerError, "failed to update usage", err.Error())
		return
	}

	JSON(w, http.StatusOK, domain.NewUsageStatus(count, h.dailyLimit, now))
}
