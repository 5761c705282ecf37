package vault

import (
	"errors"
	"testing"

	"github.com/vaultica/vaultica/pkg/credstore"
	"github.com/vaultica/vaultica/pkg/identity"
	"github.com/vaultica/vaultica/pkg/security"
)

func testQuestionSet() []identity.QuestionAnswer {
	return []identity.QuestionAnswer{
		{Question: identity.CanonicalQuestions[0], Answer: "fluffy"},
		{Question: identity.CanonicalQuestions[1], Answer: "smith"},
		{Question: identity.CanonicalQuestions[2], Answer: "springfield"},
	}
}

func openTestVault(t *testing.T) *Vault {
	t.Helper()

	v, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	session, err := v.Login("bob", "Passw0rd")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.Username() != "bob" {
		t.Errorf("session username = %q, want bob", session.Username())
	}

	if _, err := v.Login("bob", "wrong"); !errors.Is(err, identity.ErrBadCredentials) {
		t.Errorf("wrong password: got %v, want ErrBadCredentials", err)
	}
	if _, err := v.Login("nobody", "Passw0rd"); !errors.Is(err, identity.ErrUnknownUser) {
		t.Errorf("unknown user: got %v, want ErrUnknownUser", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "weak", testQuestionSet()); !errors.Is(err, security.ErrWeakPassword) {
		t.Errorf("Register weak password: got %v, want ErrWeakPassword", err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := v.Register("bob", "0therPass", testQuestionSet()); !errors.Is(err, identity.ErrDuplicateUser) {
		t.Errorf("duplicate Register: got %v, want ErrDuplicateUser", err)
	}
}

func TestRegisterRequiresQuestions(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", nil); !errors.Is(err, identity.ErrRecoverySetupIncomplete) {
		t.Errorf("Register without questions: got %v, want ErrRecoverySetupIncomplete", err)
	}
}

func TestAddListReveal(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	session, err := v.Login("bob", "Passw0rd")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	id, err := v.AddCredential(session, "email", "bob@example.com", "hunter2")
	if err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}
	if id != "1" {
		t.Errorf("first credential id = %q, want \"1\"", id)
	}

	infos, err := v.ListCredentials(session)
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d credentials, want 1", len(infos))
	}
	if infos[0].Service != "email" || infos[0].Username != "bob@example.com" {
		t.Errorf("listed credential = %+v", infos[0])
	}

	record, err := v.RevealCredential(session, id)
	if err != nil {
		t.Fatalf("RevealCredential failed: %v", err)
	}
	if record.Password != "hunter2" {
		t.Errorf("revealed password = %q, want hunter2", record.Password)
	}
}

func TestRevealNotFound(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	session, _ := v.Login("bob", "Passw0rd")

	if _, err := v.RevealCredential(session, "99"); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("RevealCredential missing id: got %v, want ErrNotFound", err)
	}
}

func TestCredentialIsolationBetweenUsers(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := v.Register("alice", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	bob, _ := v.Login("bob", "Passw0rd")
	alice, _ := v.Login("alice", "Passw0rd")

	id, err := v.AddCredential(bob, "email", "bob@example.com", "hunter2")
	if err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}

	infos, err := v.ListCredentials(alice)
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("alice sees %d of bob's credentials", len(infos))
	}

	if _, err := v.RevealCredential(alice, id); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("alice revealing bob's credential: got %v, want ErrNotFound", err)
	}
}

func TestGenerateCredential(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	session, _ := v.Login("bob", "Passw0rd")

	id, password, err := v.GenerateCredential(session, "bank", "bob", 20)
	if err != nil {
		t.Fatalf("GenerateCredential failed: %v", err)
	}
	if len(password) != 20 {
		t.Errorf("generated length = %d, want 20", len(password))
	}

	// The stored secret is exactly the generated one
	record, err := v.RevealCredential(session, id)
	if err != nil {
		t.Fatalf("RevealCredential failed: %v", err)
	}
	if record.Password != password {
		t.Error("revealed password differs from generated one")
	}

	if _, _, err := v.GenerateCredential(session, "bank", "bob", 8); !errors.Is(err, security.ErrGeneratedLength) {
		t.Errorf("short generate: got %v, want ErrGeneratedLength", err)
	}
	if _, _, err := v.GenerateCredential(session, "bank", "bob", 100); !errors.Is(err, security.ErrGeneratedLength) {
		t.Errorf("long generate: got %v, want ErrGeneratedLength", err)
	}
}

func TestOperationsRequireSession(t *testing.T) {
	v := openTestVault(t)

	if _, err := v.AddCredential(nil, "email", "bob", "hunter2"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("AddCredential without session: got %v, want ErrNotAuthenticated", err)
	}
	if _, _, err := v.GenerateCredential(nil, "email", "bob", 20); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("GenerateCredential without session: got %v, want ErrNotAuthenticated", err)
	}
	if _, err := v.ListCredentials(nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("ListCredentials without session: got %v, want ErrNotAuthenticated", err)
	}
	if _, err := v.RevealCredential(nil, "1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RevealCredential without session: got %v, want ErrNotAuthenticated", err)
	}
}

func TestCredentialsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	v1, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := v1.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	session, _ := v1.Login("bob", "Passw0rd")
	id, err := v1.AddCredential(session, "email", "bob@example.com", "hunter2")
	if err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}
	v1.Close()

	// Reopen: same key file, same database, same plaintext back
	v2, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer v2.Close()

	session2, err := v2.Login("bob", "Passw0rd")
	if err != nil {
		t.Fatalf("Login after reopen failed: %v", err)
	}
	record, err := v2.RevealCredential(session2, id)
	if err != nil {
		t.Fatalf("RevealCredential after reopen failed: %v", err)
	}
	if record.Password != "hunter2" {
		t.Errorf("password after reopen = %q, want hunter2", record.Password)
	}
}

func TestRecoveryEndToEnd(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	flow, err := v.NewRecovery("bob")
	if err != nil {
		t.Fatalf("NewRecovery failed: %v", err)
	}
	if flow.NeedsSetup() {
		t.Fatal("NeedsSetup = true for account registered with questions")
	}

	questions, err := flow.Questions()
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}

	if err := flow.SubmitAnswers([]string{"fluffy", "smith", "springfield"}); err != nil {
		t.Fatalf("SubmitAnswers failed: %v", err)
	}
	if err := flow.SubmitNewPassword("N3wPassword", "N3wPassword"); err != nil {
		t.Fatalf("SubmitNewPassword failed: %v", err)
	}

	if _, err := v.Login("bob", "N3wPassword"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, err := v.Login("bob", "Passw0rd"); !errors.Is(err, identity.ErrBadCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
}

func TestRecoveryUnknownUser(t *testing.T) {
	v := openTestVault(t)

	if _, err := v.NewRecovery("nobody"); !errors.Is(err, identity.ErrUnknownUser) {
		t.Errorf("NewRecovery unknown user: got %v, want ErrUnknownUser", err)
	}
}

func TestAuditChainAfterOperations(t *testing.T) {
	v := openTestVault(t)

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	session, _ := v.Login("bob", "Passw0rd")
	if _, err := v.AddCredential(session, "email", "bob@example.com", "hunter2"); err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}
	if _, err := v.ListCredentials(session); err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}

	result, err := v.AuditVerify()
	if err != nil {
		t.Fatalf("AuditVerify failed: %v", err)
	}
	if !result.Valid {
		t.Errorf("audit chain invalid after normal operations: %v", result.Errors)
	}
	if result.RecordsTotal < 4 {
		t.Errorf("audit records = %d, want at least 4", result.RecordsTotal)
	}
}

func TestClosedVault(t *testing.T) {
	v, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	v.Close()

	if err := v.Register("bob", "Passw0rd", testQuestionSet()); !errors.Is(err, ErrVaultClosed) {
		t.Errorf("Register on closed vault: got %v, want ErrVaultClosed", err)
	}
	if _, err := v.Login("bob", "Passw0rd"); !errors.Is(err, ErrVaultClosed) {
		t.Errorf("Login on closed vault: got %v, want ErrVaultClosed", err)
	}
}
