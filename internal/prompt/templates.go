// Package prompt renders the clarify/improve prompt templates and parses the
// structured question blocks the model is instructed to produce. The header
// and option tokens are an internal contract between the templates and the
// parser; both live here so the grammar can change in one place.
package prompt

import (
	"fmt"
	"strings"
)

// QuestionHeaderToken is the keyword the clarify template instructs the model
// to put in front of every question. The parser grammar matches it exactly.
const QuestionHeaderToken = "PYTANIE"

// BuildClarifyPrompt renders the instruction asking the model for 3 to 5
// clarification questions, each with exactly three A)/B)/C) options, in the
// fixed layout the parser understands. Pure string construction.
func BuildClarifyPrompt(question string) string {
	var b strings.Builder
	b.WriteString("Jesteś asystentem pomagającym doprecyzować pytania użytkowników przed wysłaniem ich do modelu językowego.\n\n")
	fmt.Fprintf(&b, "Pytanie użytkownika: \"%s\"\n\n", question)
	b.WriteString("Zadaj od 3 do 5 pytań doprecyzowujących. Każde pytanie musi mieć dokładnie 3 propozycje odpowiedzi oznaczone A), B) i C).\n\n")
	b.WriteString("Użyj dokładnie tego formatu:\n\n")
	fmt.Fprintf(&b, "%s 1: [treść pytania]\n", QuestionHeaderToken)
	b.WriteString("A) [pierwsza propozycja]\n")
	b.WriteString("B) [druga propozycja]\n")
	b.WriteString("C) [trzecia propozycja]\n\n")
	fmt.Fprintf(&b, "%s 2: [treść kolejnego pytania]\n", QuestionHeaderToken)
	b.WriteString("...\n\n")
	b.WriteString("Nie dodawaj żadnego tekstu poza pytaniami i propozycjami odpowiedzi.")
	return b.String()
}

// BuildImprovePrompt renders the original question plus a numbered recap of
// the user's answers and an instruction to synthesize one refined prompt.
// Answers are used positionally; the recap is 1-based.
func BuildImprovePrompt(question string, answers []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Oryginalne pytanie użytkownika: \"%s\"\n\n", question)
	b.WriteString("Odpowiedzi użytkownika na pytania doprecyzowujące:\n\n")
	for i, answer := range answers {
		fmt.Fprintf(&b, "Pytanie: %d\nOdpowiedź: %s\n\n", i+1, answer)
	}
	b.WriteString("Na podstawie oryginalnego pytania i powyższych odpowiedzi sformułuj jeden, najlepszy możliwy prompt. ")
	b.WriteString("Zwróć wyłącznie treść promptu, bez komentarzy i wyjaśnień.")
	return b.String()
}
