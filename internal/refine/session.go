// Package refine implements the multi-phase prompt-refinement orchestrator:
// a per-user conversation state machine that drives clarification, prompt
// improvement and the final model call.
package refine

import (
	"github.com/pkowalski/pimpmyprompt/internal/domain"
)

// Phase is the discrete state of a conversation session's refinement flow.
type Phase string

const (
	PhaseInit           Phase = "init"
	PhaseClarifying     Phase = "clarifying"
	PhaseImproving      Phase = "improving"
	PhaseModelSelection Phase = "model-selection"
	PhaseFinalResponse  Phase = "final-response"
	PhaseDone           Phase = "done"
)

// Session holds the state of one refinement flow. It is owned exclusively by
// the orchestrator; callers see read-only snapshots.
//
// Invariants at every stable (non-in-flight) point:
//
//	0 <= CurrentQuestionIndex <= len(ClarifyingQuestions)
//	len(Answers) == CurrentQuestionIndex
//	ImprovedPrompt is non-empty only at or past model-selection
//	SelectedProvider/SelectedModel are set only at or past final-response
type Session struct {
	Phase                Phase
	OriginalQuestion     string
	ClarifyingQuestions  []domain.QuestionRecord
	CurrentQuestionIndex int
	Answers              []string
	ImprovedPrompt       string
	SelectedProvider     string
	SelectedModel        string
	ChatID               string

	// Generation tags in-flight provider calls so that a response arriving
	// after a reset is discarded rather than applied to the new session.
	Generation uint64

	// questionProvider/questionModel record the provider used for the
	// clarification call so the improvement call reuses it.
	questionProvider string
	questionModel    string

	inFlight bool
}

func newSession(generation uint64) *Session {
	return &Session{
		Phase:      PhaseInit,
		Generation: generation,
	}
}

// Snapshot is a read-only copy of session state for API responses.
type Snapshot struct {
	Phase                Phase                   `json:"phase"`
	OriginalQuestion     string                  `json:"original_question,omitempty"`
	ClarifyingQuestions  []domain.QuestionRecord `json:"clarifying_questions,omitempty"`
	CurrentQuestionIndex int                     `json:"current_question_index"`
	Answers              []string                `json:"answers,omitempty"`
	ImprovedPrompt       string                  `json:"improved_prompt,omitempty"`
	SelectedProvider     string                  `json:"selected_provider,omitempty"`
	SelectedModel        string                  `json:"selected_model,omitempty"`
	ChatID               string                  `json:"chat_id,omitempty"`
}

func (s *Session) snapshot() Snapshot {
	questions := make([]domain.QuestionRecord, len(s.ClarifyingQuestions))
	copy(questions, s.ClarifyingQuestions)
	answers := make([]string, len(s.Answers))
	copy(answers, s.Answers)
	return Snapshot{
		Phase:                s.Phase,
		OriginalQuestion:     s.OriginalQuestion,
		ClarifyingQuestions:  questions,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		Answers:              answers,
		ImprovedPrompt:       s.ImprovedPrompt,
		SelectedProvider:     s.SelectedProvider,
		SelectedModel:        s.SelectedModel,
		ChatID:               s.ChatID,
	}
}
