package api

import (
	"net/http"
	"testing"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
	"github.com/pkowalski/pimpmyprompt/internal/refine"
)

func TestRefineFlowOverHTTP(t *testing.T) {
	gw := &fakeGateway{name: "openai", texts: []string{
		testClarifyText,
		"Ulepszony prompt",
		"Finalna odpowiedź",
	}}
	repo, router := newTestRouter(t, gw)

	rec := doRequest(t, router, http.MethodPost, "/refine/question", `{"message":"Jak pisać dobre prompty?"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("refine/question: status %d body %s", rec.Code, rec.Body.String())
	}
	var update refine.Update
	decodeBody(t, rec, &update)
	if update.Phase != refine.PhaseClarifying || len(update.Questions) != 2 {
		t.Fatalf("update after question: %+v", update)
	}

	rec = doRequest(t, router, http.MethodPost, "/refine/answer", `{"message":"Nauka"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("refine/answer(1): status %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodPost, "/refine/answer", `{"message":"Podstawowy"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("refine/answer(2): status %d", rec.Code)
	}
	decodeBody(t, rec, &update)
	if update.Phase != refine.PhaseModelSelection || update.ImprovedPrompt != "Ulepszony prompt" {
		t.Fatalf("update after answers: %+v", update)
	}

	rec = doRequest(t, router, http.MethodPost, "/refine/select", `{"provider":"openai","model":"gpt-4o"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("refine/select: status %d body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &update)
	if update.Phase != refine.PhaseDone || update.FinalResponse != "Finalna odpowiedź" {
		t.Fatalf("final update: %+v", update)
	}

	rec = doRequest(t, router, http.MethodGet, "/refine/session", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("refine/session: status %d", rec.Code)
	}
	var snap refine.Snapshot
	decodeBody(t, rec, &snap)
	if snap.Phase != refine.PhaseDone || snap.ChatID == "" {
		t.Fatalf("snapshot: %+v", snap)
	}

	// The transcript was mirrored into the store.
	msgs, err := repo.ListMessages(t.Context(), snap.ChatID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 7 {
		t.Errorf("got %d mirrored messages, want 7", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "Jak pisać dobre prompty?" {
		t.Errorf("first mirrored message: %+v", msgs[0])
	}

	rec = doRequest(t, router, http.MethodPost, "/refine/reset", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("refine/reset: status %d", rec.Code)
	}
	decodeBody(t, rec, &snap)
	if snap.Phase != refine.PhaseInit {
		t.Errorf("snapshot after reset: %+v", snap)
	}
}

func TestRefineErrorMapping(t *testing.T) {
	_, router := newTestRouter(t, &fakeGateway{name: "openai", texts: []string{testClarifyText}})

	// Blank question text.
	rec := doRequest(t, router, http.MethodPost, "/refine/question", `{"message":"   "}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank message: status %d, want 400", rec.Code)
	}

	// Answer before any question.
	rec = doRequest(t, router, http.MethodPost, "/refine/answer", `{"message":"odpowiedź"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("answer in init: status %d, want 400", rec.Code)
	}

	// Unknown provider.
	rec = doRequest(t, router, http.MethodPost, "/refine/question", `{"message":"Pytanie","provider":"nope"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown provider: status %d, want 400", rec.Code)
	}

	// Select requires a provider.
	rec = doRequest(t, router, http.MethodPost, "/refine/select", `{"model":"gpt-4o"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("select without provider: status %d, want 400", rec.Code)
	}
}
