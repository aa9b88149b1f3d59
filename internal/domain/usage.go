package domain

import (
	"time"
)

// UsageStatus reports a user's position against the daily request quota.
type UsageStatus struct {
	RequestsMade      int       `json:"requests_made"`
	RequestsRemaining int       `json:"requests_remaining"`
	DailyLimit        int       `json:"daily_limit"`
	CanMakeRequest    bool      `json:"can_make_request"`
	ResetTime         time.Time `json:"reset_time"`
}

// NewUsageStatus derives a status snapshot from a raw counter and the limit.
// ResetTime is the next UTC midnight.
func NewUsageStatus(requestsMade, dailyLimit int, now time.Time) UsageStatus {
	remaining := dailyLimit - requestsMade
	if remaining < 0 {
		remaining = 0
	}
	midnight := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return UsageStatus{
		RequestsMade:      requestsMade,
		RequestsRemaining: remaining,
		DailyLimit:        dailyLimit,
		CanMakeRequest:    requestsMade < dailyLimit,
		ResetTime:         midnight,
	}
}
