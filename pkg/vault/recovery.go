package vault

import (
	"github.com/vaultica/vaultica/pkg/audit"
	"github.com/vaultica/vaultica/pkg/identity"
	"github.com/vaultica/vaultica/pkg/recovery"
)

// Recovery binds a password-recovery flow to the vault's audit log. It
// delegates to the state machine in pkg/recovery and records start,
// failure, and commit events.
type Recovery struct {
	v        *Vault
	flow     *recovery.Flow
	username string
}

// NewRecovery starts a recovery flow for username. The flow does not
// require a session: it exists to regain access.
func (v *Vault) NewRecovery(username string) (*Recovery, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return nil, ErrVaultClosed
	}

	flow := recovery.NewFlow(v.users)
	if err := flow.Begin(username); err != nil {
		return nil, persistErr(err)
	}

	_ = v.audit.LogSuccess(audit.OpRecoveryStart, username)
	return &Recovery{v: v, flow: flow, username: username}, nil
}

// NeedsSetup reports whether the user has no recovery questions yet and
// must complete the one-time setup before answering.
func (r *Recovery) NeedsSetup() bool {
	return r.flow.NeedsSetup()
}

// SetupQuestions completes the one-time recovery setup for accounts
// without stored questions.
func (r *Recovery) SetupQuestions(pairs []identity.QuestionAnswer) error {
	if err := r.flow.SetupQuestions(pairs); err != nil {
		r.logFailure(err)
		return persistErr(err)
	}
	return nil
}

// Questions returns the user's security questions in stored order.
func (r *Recovery) Questions() ([]string, error) {
	return r.flow.Questions()
}

// SubmitAnswers checks all answers. Any single mismatch aborts the flow.
func (r *Recovery) SubmitAnswers(answers []string) error {
	if err := r.flow.SubmitAnswers(answers); err != nil {
		r.logFailure(err)
		return persistErr(err)
	}
	return nil
}

// SubmitNewPassword commits the password reset.
func (r *Recovery) SubmitNewPassword(password, confirm string) error {
	if err := r.flow.SubmitNewPassword(password, confirm); err != nil {
		r.logFailure(err)
		return persistErr(err)
	}
	_ = r.v.audit.LogSuccess(audit.OpPasswordReset, r.username)
	return nil
}

// State returns the current flow state.
func (r *Recovery) State() recovery.State {
	return r.flow.State()
}

func (r *Recovery) logFailure(err error) {
	_ = r.v.audit.LogError(audit.OpRecoveryFailed, r.username, "RECOVERY_FAILED", err.Error())
}
