// Package recovery implements the password-recovery state machine:
//
//	Start -> AwaitingQuestions -> Validating -> AwaitingNewPassword -> Committed
//
// Entry requires a known username. Users without configured questions pass
// through a one-time setup sub-flow (AwaitingQuestions) before validation.
// Every failure exits back to Start: a single wrong answer aborts the whole
// flow with no retry across questions and no password change.
package recovery

import (
	"errors"

	"github.com/vaultica/vaultica/pkg/identity"
	"github.com/vaultica/vaultica/pkg/security"
)

// State is a recovery flow state.
type State int

const (
	// StateStart is the idle state; Begin moves out of it and every
	// failure returns to it.
	StateStart State = iota
	// StateAwaitingQuestions means the user has no configured questions
	// and must complete the one-time setup sub-flow.
	StateAwaitingQuestions
	// StateValidating means stored questions are being challenged.
	StateValidating
	// StateAwaitingNewPassword means all answers verified; a new password
	// is expected.
	StateAwaitingNewPassword
	// StateCommitted means the password hash was replaced and persisted.
	StateCommitted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAwaitingQuestions:
		return "awaiting-questions"
	case StateValidating:
		return "validating"
	case StateAwaitingNewPassword:
		return "awaiting-new-password"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Errors
var (
	// ErrInvalidState indicates a call out of order for the current state.
	ErrInvalidState = errors.New("recovery: operation not valid in current state")

	// ErrAnswerMismatch indicates at least one answer failed verification.
	// The flow is aborted; which answer failed is never disclosed.
	ErrAnswerMismatch = errors.New("recovery: security answer mismatch")

	// ErrPasswordMismatch indicates the two new-password entries differ.
	ErrPasswordMismatch = errors.New("recovery: new passwords do not match")
)

// Flow is one recovery attempt. A Flow is single-use: after Committed or
// any failure exit it must be discarded or restarted with Begin.
type Flow struct {
	store *identity.Store
	state State
	user  *identity.User
}

// NewFlow creates an idle flow bound to the identity store.
func NewFlow(store *identity.Store) *Flow {
	return &Flow{store: store, state: StateStart}
}

// State returns the current state.
func (f *Flow) State() State {
	return f.state
}

// Begin starts recovery for a known username. Users without configured
// questions land in AwaitingQuestions (see NeedsSetup); everyone else goes
// straight to Validating.
func (f *Flow) Begin(username string) error {
	if f.state != StateStart {
		return ErrInvalidState
	}

	user, err := f.store.Get(username)
	if err != nil {
		return err
	}

	f.user = user
	if len(user.Questions) == 0 {
		f.state = StateAwaitingQuestions
	} else {
		f.state = StateValidating
	}
	return nil
}

// NeedsSetup reports whether the one-time question setup sub-flow is
// required before validation can proceed.
func (f *Flow) NeedsSetup() bool {
	return f.state == StateAwaitingQuestions
}

// SetupQuestions runs the one-time setup sub-flow for a user with no
// configured questions. The set is validated exactly like registration's,
// including the no-duplicate-answer invariant, and persisted before the
// flow moves on to Validating.
func (f *Flow) SetupQuestions(pairs []identity.QuestionAnswer) error {
	if f.state != StateAwaitingQuestions {
		return ErrInvalidState
	}

	questions, err := identity.BuildQuestions(pairs)
	if err != nil {
		f.reset()
		return err
	}

	if err := f.store.SetQuestions(f.user.Name, questions); err != nil {
		f.reset()
		return err
	}

	f.user.Questions = questions
	f.state = StateValidating
	return nil
}

// Questions returns the stored question texts in stored order. Each is
// presented exactly once during validation.
func (f *Flow) Questions() ([]string, error) {
	if f.state != StateValidating {
		return nil, ErrInvalidState
	}

	texts := make([]string, len(f.user.Questions))
	for i, q := range f.user.Questions {
		texts[i] = q.Question
	}
	return texts, nil
}

// SubmitAnswers verifies one answer per stored question, in stored order.
// Every answer must verify; any single mismatch aborts the whole flow with
// ErrAnswerMismatch. There is no partial credit and no per-question retry.
func (f *Flow) SubmitAnswers(answers []string) error {
	if f.state != StateValidating {
		return ErrInvalidState
	}

	if len(answers) != len(f.user.Questions) {
		f.reset()
		return ErrAnswerMismatch
	}

	// Verify every answer before reporting so the error reveals nothing
	// about which challenge failed.
	ok := true
	for i, q := range f.user.Questions {
		if !identity.VerifyAnswer(q.AnswerHash, answers[i]) {
			ok = false
		}
	}
	if !ok {
		f.reset()
		return ErrAnswerMismatch
	}

	f.state = StateAwaitingNewPassword
	return nil
}

// SubmitNewPassword takes two independently entered copies of the new
// password, enforces the registration strength policy, and commits the new
// hash. Security questions are not altered. Any violation aborts the flow
// with the specific reason.
func (f *Flow) SubmitNewPassword(password, confirm string) error {
	if f.state != StateAwaitingNewPassword {
		return ErrInvalidState
	}

	if password != confirm {
		f.reset()
		return ErrPasswordMismatch
	}

	if err := security.ValidatePassword(password); err != nil {
		f.reset()
		return err
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		f.reset()
		return err
	}

	if err := f.store.UpdatePasswordHash(f.user.Name, hash); err != nil {
		f.reset()
		return err
	}

	f.state = StateCommitted
	return nil
}

// Username returns the subject of the flow, or "" before Begin.
func (f *Flow) Username() string {
	if f.user == nil {
		return ""
	}
	return f.user.Name
}

func (f *Flow) reset() {
	f.state = StateStart
	f.user = nil
}
