package api

import (
	"net/http"
	"testing"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
	"github.com/pkowalski/pimpmyprompt/internal/provider"
)

func TestHandleChat(t *testing.T) {
	t.Run("question-shaped response", func(t *testing.T) {
		_, router := newTestRouter(t, &fakeGateway{name: "openai", texts: []string{testClarifyText}})

		rec := doRequest(t, router, http.MethodPost, "/chat/openai", `{"message":"Pytanie"}`, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Questions []domain.QuestionRecord `json:"questions"`
		}
		decodeBody(t, rec, &body)
		if len(body.Questions) != 2 {
			t.Errorf("got %d questions, want 2", len(body.Questions))
		}
	})

	t.Run("plain response", func(t *testing.T) {
		_, router := newTestRouter(t, &fakeGateway{name: "openai", texts: []string{"zwykła odpowiedź"}})

		rec := doRequest(t, router, http.MethodPost, "/chat/openai", `{"message":"Pytanie"}`, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Response string `json:"response"`
		}
		decodeBody(t, rec, &body)
		if body.Response != "zwykła odpowiedź" {
			t.Errorf("response = %q", body.Response)
		}
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, router := newTestRouter(t, &fakeGateway{name: "openai"})

		rec := doRequest(t, router, http.MethodPost, "/chat/nope", `{"message":"Pytanie"}`, false)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("provider failure carries details", func(t *testing.T) {
		gw := &fakeGateway{name: "openai", err: &provider.CallError{Vendor: "openai", Status: 500, Message: "boom"}}
		_, router := newTestRouter(t, gw)

		rec := doRequest(t, router, http.MethodPost, "/chat/openai", `{"message":"Pytanie"}`, false)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		var body struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		decodeBody(t, rec, &body)
		if body.Details != "boom" {
			t.Errorf("details = %q", body.Details)
		}
	})

	t.Run("legacy action shape", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want int
		}{
			{"clarify", `{"action":"clarify","question":"Jak pisać?"}`, http.StatusOK},
			{"improve", `{"action":"improve","question":"Jak pisać?","answers":["krótko"]}`, http.StatusOK},
			{"clarify without question", `{"action":"clarify"}`, http.StatusBadRequest},
			{"improve without question", `{"action":"improve","answers":["a"]}`, http.StatusBadRequest},
			{"unknown action", `{"action":"summarize","question":"X"}`, http.StatusBadRequest},
			{"no message no action", `{}`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, router := newTestRouter(t, &fakeGateway{name: "openai", texts: []string{"odpowiedź"}})
				rec := doRequest(t, router, http.MethodPost, "/chat/openai", tt.body, false)
				if rec.Code != tt.want {
					t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
				}
			})
		}
	})
}

func TestHandleClarify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"complete request", `{"message":"M","provider":"openai","model":"gpt-4o-mini"}`, http.StatusOK},
		{"missing message", `{"provider":"openai","model":"gpt-4o-mini"}`, http.StatusBadRequest},
		{"missing provider", `{"message":"M","model":"gpt-4o-mini"}`, http.StatusBadRequest},
		{"missing model", `{"message":"M","provider":"openai"}`, http.StatusBadRequest},
		{"unknown provider", `{"message":"M","provider":"nope","model":"x"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := newTestRouter(t, &fakeGateway{name: "openai", texts: []string{"odpowiedź"}})
			rec := doRequest(t, router, http.MethodPost, "/clarify", tt.body, false)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK {
				var body struct {
					Response string `json:"response"`
				}
				decodeBody(t, rec, &body)
				if body.Response != "odpowiedź" {
					t.Errorf("response = %q", body.Response)
				}
			}
		})
	}
}
