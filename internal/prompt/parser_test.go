package prompt

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseQuestionsWithOptions(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCount   int
		wantFirst   string
		wantOptions []string
	}{
		{
			name: "two complete questions",
			input: "PYTANIE 1: Jaki jest cel?\n" +
				"A) Nauka\n" +
				"B) Praca\n" +
				"C) Hobby\n" +
				"\n" +
				"PYTANIE 2: Jaki poziom?\n" +
				"A) Początkujący\n" +
				"B) Zaawansowany\n",
			wantCount:   2,
			wantFirst:   "Jaki jest cel?",
			wantOptions: []string{"Nauka", "Praca", "Hobby"},
		},
		{
			name: "conversational filler around the block is ignored",
			input: "Oczywiście! Oto pytania doprecyzowujące:\n" +
				"\n" +
				"PYTANIE 1: Dla kogo jest ten tekst?\n" +
				"A) Dla początkujących\n" +
				"B) Dla ekspertów\n" +
				"C) Dla wszystkich\n" +
				"\n" +
				"Mam nadzieję, że pomogłem!\n",
			wantCount:   1,
			wantFirst:   "Dla kogo jest ten tekst?",
			wantOptions: []string{"Dla początkujących", "Dla ekspertów", "Dla wszystkich"},
		},
		{
			name: "bold markers around the header",
			input: "**PYTANIE 1**: Co jest najważniejsze?\n" +
				"A) Szybkość\n" +
				"B) Jakość\n",
			wantCount:   1,
			wantFirst:   "Co jest najważniejsze?",
			wantOptions: []string{"Szybkość", "Jakość"},
		},
		{
			name: "header with zero options is dropped",
			input: "PYTANIE 1: Pytanie bez opcji\n" +
				"PYTANIE 2: Pytanie z opcjami\n" +
				"A) Tak\n" +
				"B) Nie\n",
			wantCount:   1,
			wantFirst:   "Pytanie z opcjami",
			wantOptions: []string{"Tak", "Nie"},
		},
		{
			name: "trailing header without options is dropped",
			input: "PYTANIE 1: Pierwsze\n" +
				"A) Opcja\n" +
				"PYTANIE 2: Wiszące\n",
			wantCount:   1,
			wantFirst:   "Pierwsze",
			wantOptions: []string{"Opcja"},
		},
		{
			name:      "empty input",
			input:     "",
			wantCount: 0,
		},
		{
			name:      "no structure at all",
			input:     "no structure here",
			wantCount: 0,
		},
		{
			name: "option lines before any header are ignored",
			input: "A) Zgubiona opcja\n" +
				"PYTANIE 1: Właściwe pytanie\n" +
				"B) Druga\n",
			wantCount:   1,
			wantFirst:   "Właściwe pytanie",
			wantOptions: []string{"Druga"},
		},
		{
			name: "empty option remainder is skipped",
			input: "PYTANIE 1: Pytanie\n" +
				"A)\n" +
				"B) Pełna opcja\n",
			wantCount:   1,
			wantFirst:   "Pytanie",
			wantOptions: []string{"Pełna opcja"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuestionsWithOptions(tt.input)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d records, want %d: %+v", len(got), tt.wantCount, got)
			}
			if tt.wantCount == 0 {
				return
			}
			if got[0].Question != tt.wantFirst {
				t.Errorf("first question = %q, want %q", got[0].Question, tt.wantFirst)
			}
			if len(got[0].Options) != len(tt.wantOptions) {
				t.Fatalf("first question options = %v, want %v", got[0].Options, tt.wantOptions)
			}
			for i, opt := range tt.wantOptions {
				if got[0].Options[i] != opt {
					t.Errorf("option[%d] = %q, want %q", i, got[0].Options[i], opt)
				}
			}
		})
	}
}

func TestParsePreservesInputOrder(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%s %d: Pytanie numer %d\n", QuestionHeaderToken, i, i)
		fmt.Fprintf(&b, "A) Opcja A%d\nB) Opcja B%d\nC) Opcja C%d\n\n", i, i, i)
	}

	got := ParseQuestionsWithOptions(b.String())
	if len(got) != 5 {
		t.Fatalf("got %d records, want 5", len(got))
	}
	for i, rec := range got {
		want := fmt.Sprintf("Pytanie numer %d", i+1)
		if rec.Question != want {
			t.Errorf("record[%d].Question = %q, want %q", i, rec.Question, want)
		}
		if len(rec.Options) != 3 {
			t.Errorf("record[%d] has %d options, want 3", i, len(rec.Options))
		}
		wantOpt := fmt.Sprintf("Opcja B%d", i+1)
		if rec.Options[1] != wantOpt {
			t.Errorf("record[%d].Options[1] = %q, want %q", i, rec.Options[1], wantOpt)
		}
	}
}

// A synthetic "model answer" built with the exact tokens the clarify template
// asks for must round-trip through the parser.
func TestParserMatchesTemplateGrammar(t *testing.T) {
	const questionCount = 4
	var b strings.Builder
	b.WriteString("Oto pytania:\n\n")
	for i := 1; i <= questionCount; i++ {
		fmt.Fprintf(&b, "%s %d: Doprecyzowanie %d?\n", QuestionHeaderToken, i, i)
		b.WriteString("A) Pierwsza\nB) Druga\nC) Trzecia\n\n")
	}

	got := ParseQuestionsWithOptions(b.String())
	if len(got) != questionCount {
		t.Fatalf("got %d records, want %d", len(got), questionCount)
	}
	for i, rec := range got {
		if len(rec.Options) != 3 {
			t.Errorf("record[%d] has %d options, want 3", i, len(rec.Options))
		}
	}
}
