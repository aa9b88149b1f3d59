package refine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkowalski/pimpmyprompt/internal/domain"
	"github.com/pkowalski/pimpmyprompt/internal/prompt"
	"github.com/pkowalski/pimpmyprompt/internal/provider"
	"github.com/pkowalski/pimpmyprompt/internal/store"
)

var (
	// ErrBusy is returned when an operation arrives while a provider call is
	// already in flight for the same session.
	ErrBusy = errors.New("refine: session is busy")

	// ErrInvalidPhase is returned when an operation is not valid in the
	// session's current phase.
	ErrInvalidPhase = errors.New("refine: operation not valid in current phase")

	// ErrBlankInput is returned for empty question or answer text.
	ErrBlankInput = errors.New("refine: input must not be blank")

	// ErrUnknownProvider is returned when the named provider has no catalog
	// entry or no configured gateway.
	ErrUnknownProvider = errors.New("refine: unknown provider")

	// ErrSuperseded is returned to a caller whose provider call completed
	// after the session was reset; the result has been discarded.
	ErrSuperseded = errors.New("refine: session was reset, result discarded")
)

// Bot-authored error messages emitted on provider failures.
const (
	msgClarifyFailed = "Nie udało się wygenerować pytań doprecyzowujących. Spróbuj ponownie."
	msgImproveFailed = "Nie udało się ulepszyć promptu. Odpowiedz na ostatnie pytanie jeszcze raz."
	msgFinalFailed   = "Nie udało się uzyskać odpowiedzi od wybranego modelu. Wybierz model ponownie."
)

// Update reports the outcome of a session operation: the resulting phase and
// the bot messages emitted by the transition.
type Update struct {
	Phase          Phase                   `json:"phase"`
	BotMessages    []string                `json:"bot_messages,omitempty"`
	Questions      []domain.QuestionRecord `json:"questions,omitempty"`
	QuestionIndex  int                     `json:"question_index"`
	ImprovedPrompt string                  `json:"improved_prompt,omitempty"`
	FinalResponse  string                  `json:"final_response,omitempty"`
	Failed         bool                    `json:"failed,omitempty"`
}

// Service owns the per-user refinement sessions and drives the state machine.
// Operations on a single session are serialized by the single-flight guard:
// while a provider call is in flight, further operations fail with ErrBusy.
type Service struct {
	registry *provider.Registry
	gateways provider.Set
	repo     store.Repository
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates the orchestrator. repo may be nil in tests; persistence
// is fire-and-forget and never blocks a phase transition.
func NewService(registry *provider.Registry, gateways provider.Set, repo store.Repository) *Service {
	return &Service{
		registry: registry,
		gateways: gateways,
		repo:     repo,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (s *Service) sessionLocked(userID string) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newSession(1)
		s.sessions[userID] = sess
	}
	return sess
}

// Snapshot returns a read-only copy of the user's session state.
func (s *Service) Snapshot(userID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocked(userID).snapshot()
}

// Reset discards the user's session and returns a fresh init state. Valid
// from any phase; an outstanding provider call for the old session will find
// its generation stale and be discarded on completion.
func (s *Service) Reset(userID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := uint64(1)
	if old, ok := s.sessions[userID]; ok {
		gen = old.Generation + 1
	}
	fresh := newSession(gen)
	s.sessions[userID] = fresh
	return fresh.snapshot()
}

// SubmitQuestion starts the flow: it sends the clarify prompt to the question
// provider and, when the response parses into at least one question, moves
// the session to clarifying and emits the first question. On a provider
// failure or an unparseable response the session stays in init and a bot
// error message is emitted (Failed is set); the user may resubmit.
func (s *Service) SubmitQuestion(ctx context.Context, userID, text, providerID, modelID string) (Update, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Update{}, ErrBlankInput
	}

	qp := s.registry.DefaultQuestionProvider()
	if providerID != "" {
		p, ok := s.registry.QuestionProvider(providerID)
		if !ok {
			return Update{}, ErrUnknownProvider
		}
		qp = p
	}
	model := modelID
	if model == "" {
		model = qp.Model
	}
	gw, ok := s.gateways.Lookup(qp.ID)
	if !ok {
		return Update{}, ErrUnknownProvider
	}

	s.mu.Lock()
	sess := s.sessionLocked(userID)
	if sess.inFlight {
		s.mu.Unlock()
		return Update{}, ErrBusy
	}
	if sess.Phase != PhaseInit {
		s.mu.Unlock()
		return Update{}, ErrInvalidPhase
	}
	sess.inFlight = true
	gen := sess.Generation
	s.mu.Unlock()

	raw, callErr := gw.Complete(ctx, prompt.BuildClarifyPrompt(text), model)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] != sess || sess.Generation != gen {
		return Update{}, ErrSuperseded
	}
	sess.inFlight = false

	if callErr != nil {
		slog.Warn("clarification call failed", "user_id", userID, "provider", gw.Name(), "error", callErr)
		return Update{Phase: sess.Phase, BotMessages: []string{msgClarifyFailed}, Failed: true}, nil
	}

	questions := prompt.ParseQuestionsWithOptions(raw)
	if len(questions) == 0 {
		slog.Warn("clarification response had no parseable questions", "user_id", userID, "provider", gw.Name())
		return Update{Phase: sess.Phase, BotMessages: []string{msgClarifyFailed}, Failed: true}, nil
	}

	sess.OriginalQuestion = text
	sess.ClarifyingQuestions = questions
	sess.CurrentQuestionIndex = 0
	sess.Answers = nil
	sess.ImprovedPrompt = ""
	sess.Phase = PhaseClarifying
	sess.questionProvider = qp.ID
	sess.questionModel = model

	s.ensureChat(ctx, sess, userID, text)
	s.persistMessage(ctx, sess, domain.RoleUser, text)
	s.persistMessage(ctx, sess, domain.RoleBot, questions[0].Question)

	out := make([]domain.QuestionRecord, len(questions))
	copy(out, questions)
	return Update{
		Phase:       PhaseClarifying,
		BotMessages: []string{questions[0].Question},
		Questions:   out,
	}, nil
}

// SubmitAnswer records the answer to the current clarification question.
// While questions remain it emits the next one; after the last answer it
// builds the improve prompt and calls the question provider. On an improve
// failure the session rolls back to clarifying at the last question and the
// answer from the failed attempt is dropped so it can be given again.
func (s *Service) SubmitAnswer(ctx context.Context, userID, text string) (Update, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Update{}, ErrBlankInput
	}

	s.mu.Lock()
	sess := s.sessionLocked(userID)
	if sess.inFlight {
		s.mu.Unlock()
		return Update{}, ErrBusy
	}
	if sess.Phase != PhaseClarifying {
		s.mu.Unlock()
		return Update{}, ErrInvalidPhase
	}

	sess.Answers = append(sess.Answers, text)
	s.persistMessage(ctx, sess, domain.RoleUser, text)

	if sess.CurrentQuestionIndex+1 < len(sess.ClarifyingQuestions) {
		sess.CurrentQuestionIndex++
		next := sess.ClarifyingQuestions[sess.CurrentQuestionIndex].Question
		s.persistMessage(ctx, sess, domain.RoleBot, next)
		idx := sess.CurrentQuestionIndex
		s.mu.Unlock()
		return Update{
			Phase:         PhaseClarifying,
			BotMessages:   []string{next},
			QuestionIndex: idx,
		}, nil
	}

	// Last question answered: build and send the improve prompt.
	sess.CurrentQuestionIndex = len(sess.ClarifyingQuestions)
	sess.Phase = PhaseImproving
	improvePrompt := prompt.BuildImprovePrompt(sess.OriginalQuestion, sess.Answers)
	gw, ok := s.gateways.Lookup(sess.questionProvider)
	model := sess.questionModel
	if !ok {
		// The provider was validated at SubmitQuestion; losing it mid-session
		// is handled like any other improve failure.
		s.rollbackImproveLocked(sess)
		s.mu.Unlock()
		return Update{Phase: PhaseClarifying, BotMessages: []string{msgImproveFailed}, Failed: true,
			QuestionIndex: len(sess.ClarifyingQuestions) - 1}, nil
	}
	sess.inFlight = true
	gen := sess.Generation
	s.mu.Unlock()

	raw, callErr := gw.Complete(ctx, improvePrompt, model)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] != sess || sess.Generation != gen {
		return Update{}, ErrSuperseded
	}
	sess.inFlight = false

	if callErr != nil || strings.TrimSpace(raw) == "" {
		if callErr != nil {
			slog.Warn("improve call failed", "user_id", userID, "provider", gw.Name(), "error", callErr)
		} else {
			slog.Warn("improve call returned no content", "user_id", userID, "provider", gw.Name())
		}
		s.rollbackImproveLocked(sess)
		return Update{
			Phase:         PhaseClarifying,
			BotMessages:   []string{msgImproveFailed},
			Failed:        true,
			QuestionIndex: sess.CurrentQuestionIndex,
		}, nil
	}

	sess.ImprovedPrompt = raw
	sess.Phase = PhaseModelSelection
	s.persistMessage(ctx, sess, domain.RoleBot, raw)

	return Update{
		Phase:          PhaseModelSelection,
		BotMessages:    []string{raw},
		ImprovedPrompt: raw,
	}, nil
}

// rollbackImproveLocked returns the session to clarifying at the last
// question, dropping the answer from the failed attempt.
func (s *Service) rollbackImproveLocked(sess *Session) {
	sess.Phase = PhaseClarifying
	if len(sess.Answers) > 0 {
		sess.Answers = sess.Answers[:len(sess.Answers)-1]
	}
	if len(sess.ClarifyingQuestions) > 0 {
		sess.CurrentQuestionIndex = len(sess.ClarifyingQuestions) - 1
	} else {
		sess.CurrentQuestionIndex = 0
	}
}

// SelectModel records the chosen provider/model and issues the final call
// with the improved prompt. A call before the improved prompt exists is a
// no-op: the phase is unchanged and no gateway call is made. On failure the
// session rolls back to model-selection and the selection is cleared so the
// user can pick again.
func (s *Service) SelectModel(ctx context.Context, userID, providerID, modelID string) (Update, error) {
	s.mu.Lock()
	sess := s.sessionLocked(userID)
	if sess.inFlight {
		s.mu.Unlock()
		return Update{}, ErrBusy
	}
	if sess.Phase != PhaseModelSelection || sess.ImprovedPrompt == "" {
		phase := sess.Phase
		s.mu.Unlock()
		return Update{Phase: phase}, nil
	}

	desc, ok := s.registry.ResponseProvider(providerID)
	if !ok {
		s.mu.Unlock()
		return Update{}, ErrUnknownProvider
	}
	gw, ok := s.gateways.Lookup(providerID)
	if !ok {
		s.mu.Unlock()
		return Update{}, ErrUnknownProvider
	}
	model := modelID
	if model == "" {
		model = desc.RecommendedModelID
	}

	sess.SelectedProvider = providerID
	sess.SelectedModel = model
	sess.Phase = PhaseFinalResponse
	sess.inFlight = true
	gen := sess.Generation
	improved := sess.ImprovedPrompt
	s.mu.Unlock()

	raw, callErr := gw.Complete(ctx, improved, model)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] != sess || sess.Generation != gen {
		return Update{}, ErrSuperseded
	}
	sess.inFlight = false

	if callErr != nil || strings.TrimSpace(raw) == "" {
		if callErr != nil {
			slog.Warn("final response call failed", "user_id", userID, "provider", gw.Name(), "error", callErr)
		} else {
			slog.Warn("final response had no content", "user_id", userID, "provider", gw.Name())
		}
		sess.Phase = PhaseModelSelection
		sess.SelectedProvider = ""
		sess.SelectedModel = ""
		return Update{Phase: PhaseModelSelection, BotMessages: []string{msgFinalFailed}, Failed: true}, nil
	}

	sess.Phase = PhaseDone
	s.persistMessage(ctx, sess, domain.RoleBot, raw)

	return Update{
		Phase:         PhaseDone,
		BotMessages:   []string{raw},
		FinalResponse: raw,
	}, nil
}

func (s *Service) ensureChat(ctx context.Context, sess *Session, userID, question string) {
	if s.repo == nil || sess.ChatID != "" {
		return
	}
	chat := &domain.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     chatTitle(question),
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateChat(ctx, chat); err != nil {
		slog.Warn("failed to create chat record", "user_id", userID, "error", err)
		return
	}
	sess.ChatID = chat.ID
}

func (s *Service) persistMessage(ctx context.Context, sess *Session, role, content string) {
	if s.repo == nil || sess.ChatID == "" {
		return
	}
	msg := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    sess.ChatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		slog.Warn("failed to persist message", "chat_id", sess.ChatID, "role", role, "error", err)
	}
}

func chatTitle(question string) string {
	const maxRunes = 60
	runes := []rune(question)
	if len(runes) <= maxRunes {
		return question
	}
	return string(runes[:maxRunes]) + "…"
}
