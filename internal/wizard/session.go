package wizard

import (
	"errors"
	"sync"
)

var (
	// ErrStepGated is returned when a forward transition is attempted
	// with required fields of the current step still empty.
	ErrStepGated = errors.New("required fields missing for current step")

	// ErrSubmitInFlight guards against double submission.
	ErrSubmitInFlight = errors.New("submission already in flight")

	// ErrNotAtSummary is returned when submit is attempted before the
	// final step.
	ErrNotAtSummary = errors.New("application is not at the summary step")
)

// Session is one user's in-progress application. One session per user;
// abandoned sessions are simply replaced by the next Start.
type Session struct {
	UserID     uint     `json:"user_id"`
	Step       Step     `json:"step"`
	DocsOnFile bool     `json:"docs_on_file"`
	Form       FormData `json:"form"`

	submitting bool
}

// Advance moves the session forward one step, gated on the current
// step's required fields. The step is unchanged on error.
func (s *Session) Advance() error {
	if !s.Form.CanAdvance(s.Step) {
		return ErrStepGated
	}
	s.Step = Next(s.Step, s.DocsOnFile)
	return nil
}

// Back moves the session one step backward, honoring the Documents skip.
func (s *Session) Back() {
	s.Step = Prev(s.Step, s.DocsOnFile)
}

// BeginSubmit marks the session as submitting. It fails if the session
// is not at the summary step or a submission is already running.
func (s *Session) BeginSubmit() error {
	if s.Step != StepSummary {
		return ErrNotAtSummary
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	s.submitting = true
	return nil
}

// EndSubmit clears the in-flight flag so a failed submission can be
// retried by the user.
func (s *Session) EndSubmit() {
	s.submitting = false
}

// Manager holds the live wizard sessions, keyed by user id.
type Manager struct {
	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uint]*Session)}
}

// Start creates (or restarts) the session for a user, seeded with
// whatever the caller pre-filled from the profile.
func (m *Manager) Start(userID uint, docsOnFile bool, seed FormData) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		UserID:     userID,
		Step:       StepLoanDetails,
		DocsOnFile: docsOnFile,
		Form:       seed,
	}
	m.sessions[userID] = s
	return s
}

// Get returns the user's session, or nil when none is in progress.
func (m *Manager) Get(userID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// End discards the user's session after submission or abandonment.
func (m *Manager) End(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
