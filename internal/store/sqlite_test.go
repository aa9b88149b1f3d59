package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetUser(ctx, "missing")
	if err != nil {
		t.Fatalf("GetUser(missing): %v", err)
	}
	if got != nil {
		t.Fatalf("GetUser(missing) = %+v, want nil", got)
	}

	now := time.Now().Truncate(time.Second)
	user := &domain.User{
		UserID:     "u1",
		Username:   "anon_abc",
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	got, err = repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got == nil || got.Username != "anon_abc" {
		t.Fatalf("GetUser = %+v", got)
	}

	later := now.Add(time.Hour)
	if err := repo.UpdateLastSeen(ctx, "u1", later); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}
	got, err = repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !got.LastSeenAt.Equal(later) {
		t.Errorf("LastSeenAt = %v, want %v", got.LastSeenAt, later)
	}
}

func TestChatAndMessageLifecycle(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	chat := &domain.Chat{ID: "c1", UserID: "u1", Title: "Pierwszy czat", CreatedAt: now}
	if err := repo.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	other := &domain.Chat{ID: "c2", UserID: "u1", Title: "Drugi czat", CreatedAt: now.Add(time.Minute)}
	if err := repo.CreateChat(ctx, other); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	chats, err := repo.ListChats(ctx, "u1")
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0].ID != "c2" {
		t.Errorf("chats[0].ID = %q, want newest first", chats[0].ID)
	}

	for i, m := range []struct{ id, role, content string }{
		{"m1", domain.RoleUser, "Pytanie"},
		{"m2", domain.RoleBot, "Odpowiedź"},
		{"m3", domain.RoleUser, "Kolejne pytanie"},
	} {
		msg := &domain.Message{
			ID: m.id, ChatID: "c1", Role: m.role, Content: m.content,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := repo.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage(%s): %v", m.id, err)
		}
	}

	msgs, err := repo.ListMessages(ctx, "c1")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, wantID := range []string{"m1", "m2", "m3"} {
		if msgs[i].ID != wantID {
			t.Errorf("msgs[%d].ID = %q, want %q (insertion order)", i, msgs[i].ID, wantID)
		}
	}
}

func TestDeleteChat(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.CreateChat(ctx, &domain.Chat{ID: "c1", UserID: "u1", Title: "T", CreatedAt: now}); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if err := repo.AppendMessage(ctx, &domain.Message{ID: "m1", ChatID: "c1", Role: domain.RoleUser, Content: "x", CreatedAt: now}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	// Wrong owner: not found, nothing removed.
	if err := repo.DeleteChat(ctx, "c1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteChat(wrong owner) = %v, want ErrNotFound", err)
	}
	if chats, _ := repo.ListChats(ctx, "u1"); len(chats) != 1 {
		t.Fatalf("chat removed by non-owner delete")
	}

	if err := repo.DeleteChat(ctx, "c1", "u1"); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if chats, _ := repo.ListChats(ctx, "u1"); len(chats) != 0 {
		t.Errorf("chat still listed after delete")
	}
	if msgs, _ := repo.ListMessages(ctx, "c1"); len(msgs) != 0 {
		t.Errorf("messages survived chat delete")
	}

	if err := repo.DeleteChat(ctx, "c1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteChat(gone) = %v, want ErrNotFound", err)
	}
}

func TestUsageCounters(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	day := DayKey(time.Now())

	count, err := repo.GetUsage(ctx, "u1", day)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if count != 0 {
		t.Errorf("initial usage = %d, want 0", count)
	}

	for want := 1; want <= 3; want++ {
		count, err = repo.IncrementUsage(ctx, "u1", day)
		if err != nil {
			t.Fatalf("IncrementUsage: %v", err)
		}
		if count != want {
			t.Errorf("usage after increment = %d, want %d", count, want)
		}
	}

	// Counters are bucketed per day and per user.
	otherDay := DayKey(time.Now().AddDate(0, 0, 1))
	if count, _ := repo.GetUsage(ctx, "u1", otherDay); count != 0 {
		t.Errorf("next-day usage = %d, want 0", count)
	}
	if count, _ := repo.GetUsage(ctx, "u2", day); count != 0 {
		t.Errorf("other-user usage = %d, want 0", count)
	}
}

func TestDayKey(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC the same day; the bucket follows UTC.
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 3, 1, 1, 30, 0, 0, loc)
	if got := DayKey(ts); got != "2026-02-28" {
		t.Errorf("DayKey = %q, want %q", got, "2026-02-28")
	}
}
