// Package vault is the composition root: it owns the master key, the
// database, the stores, and the audit log, and exposes the operations the
// CLI drives. Every operation that mutates state is persisted before it
// returns, either as a single statement or a transaction inside the stores.
package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vaultica/vaultica/pkg/audit"
	"github.com/vaultica/vaultica/pkg/credstore"
	"github.com/vaultica/vaultica/pkg/crypto"
	"github.com/vaultica/vaultica/pkg/identity"
	"github.com/vaultica/vaultica/pkg/keystore"
	"github.com/vaultica/vaultica/pkg/security"
)

// DBFileName is the SQLite database file inside the vault directory.
const DBFileName = "vault.db"

// AuditDirName is the audit log directory inside the vault directory.
const AuditDirName = "audit"

// FileMode is the required permission for vault files
const FileMode = 0600

// DirMode is the required permission for the vault directory
const DirMode = 0700

// ErrVaultClosed is returned when operating on a closed vault
var ErrVaultClosed = errors.New("vault: vault is closed")

// ErrNotAuthenticated is returned when an operation requires a session
var ErrNotAuthenticated = errors.New("vault: not authenticated")

// ErrPersistence is returned when the backing storage fails
var ErrPersistence = errors.New("vault: persistence failure")

// Options configures Open.
type Options struct {
	// KeyBackend overrides where the master key lives. Nil selects the
	// vault.key file inside the vault directory.
	KeyBackend keystore.Backend
}

// Vault is an open credential vault.
type Vault struct {
	mu    sync.RWMutex
	dir   string
	db    *sql.DB
	keys  *keystore.Store
	users *identity.Store
	creds *credstore.Store
	audit *audit.Logger
}

// Session proves a successful login. Sessions are only handed out by Login
// and carry no secret material.
type Session struct {
	username string
}

// Username returns the authenticated username.
func (s *Session) Username() string {
	return s.username
}

// CredentialInfo is a credential listing entry. The stored secret is not
// part of it; listing never decrypts.
type CredentialInfo struct {
	ID       string
	Service  string
	Username string
}

// RevealedCredential is a fully decrypted credential record.
type RevealedCredential struct {
	ID       string
	Service  string
	Username string
	Password string
}

// Open opens (or creates) the vault at dir. The master key is loaded or
// generated on first use, the database and audit chain are initialized, and
// insecure file permissions are reported on stderr.
func Open(dir string, opts *Options) (*Vault, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("vault: failed to create vault directory: %w", err)
	}

	backend := opts.KeyBackend
	if backend == nil {
		backend = keystore.NewFileBackend(dir)
	}

	keys := keystore.New(backend)
	if err := keys.Initialize(); err != nil {
		return nil, err
	}
	for _, w := range keys.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	dbPath := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		keys.Wipe()
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrPersistence, err)
	}

	// Single-connection mode avoids "database is locked" errors; fine for
	// CLI usage where concurrent access is limited.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	users, err := identity.NewStore(db)
	if err != nil {
		db.Close()
		keys.Wipe()
		return nil, persistErr(err)
	}

	creds, err := credstore.NewStore(db)
	if err != nil {
		db.Close()
		keys.Wipe()
		return nil, persistErr(err)
	}

	// The database file exists after table creation; tighten it.
	if err := os.Chmod(dbPath, FileMode); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to set database permissions: %v\n", err)
	}

	v := &Vault{
		dir:   dir,
		db:    db,
		keys:  keys,
		users: users,
		creds: creds,
		audit: audit.NewLogger(filepath.Join(dir, AuditDirName)),
	}

	masterKey, err := keys.Key()
	if err != nil {
		v.Close()
		return nil, err
	}
	if err := v.audit.SetHMACKey(masterKey); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize audit logger: %v\n", err)
	}

	v.checkAndWarnPermissions()

	return v, nil
}

// Close wipes the master key from memory and closes the database.
func (v *Vault) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.keys.Wipe()

	if v.db != nil {
		v.db.Close()
		v.db = nil
	}
}

// Dir returns the vault directory path.
func (v *Vault) Dir() string {
	return v.dir
}

// Register creates a new user with a policy-checked password and a validated
// security-question set. The user record and all questions are written in
// one transaction.
func (v *Vault) Register(username, password string, questions []identity.QuestionAnswer) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return ErrVaultClosed
	}

	if err := security.ValidatePassword(password); err != nil {
		return err
	}

	hashed, err := identity.BuildQuestions(questions)
	if err != nil {
		return err
	}

	passwordHash, err := identity.HashPassword(password)
	if err != nil {
		return err
	}

	if err := v.users.Create(username, passwordHash, hashed); err != nil {
		return persistErr(err)
	}

	_ = v.audit.LogSuccess(audit.OpUserRegister, username)
	return nil
}

// Login authenticates a user and returns a session on success.
func (v *Vault) Login(username, password string) (*Session, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return nil, ErrVaultClosed
	}

	if _, err := identity.Authenticate(v.users, username, password); err != nil {
		if errors.Is(err, identity.ErrBadCredentials) || errors.Is(err, identity.ErrUnknownUser) {
			_ = v.audit.LogError(audit.OpUserLoginFailed, username, "AUTH_FAILED", "invalid credentials")
		}
		return nil, persistErr(err)
	}

	_ = v.audit.LogSuccess(audit.OpUserLogin, username)
	return &Session{username: username}, nil
}

// AddCredential encrypts password and stores it for the session's user.
// Returns the new credential's id.
func (v *Vault) AddCredential(s *Session, service, username, password string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return "", ErrVaultClosed
	}
	if s == nil {
		return "", ErrNotAuthenticated
	}

	id, err := v.storeCredential(s, service, username, password)
	if err != nil {
		return "", err
	}

	_ = v.audit.LogSuccess(audit.OpCredentialAdd, s.username)
	return id, nil
}

// GenerateCredential generates a random password of the requested length
// (14 to 64 characters) and stores it like AddCredential. Returns the new
// credential's id and the generated plaintext so the caller can show it
// once.
func (v *Vault) GenerateCredential(s *Session, service, username string, length int) (string, string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return "", "", ErrVaultClosed
	}
	if s == nil {
		return "", "", ErrNotAuthenticated
	}

	password, err := security.GeneratePassword(length)
	if err != nil {
		return "", "", err
	}

	id, err := v.storeCredential(s, service, username, password)
	if err != nil {
		return "", "", err
	}

	_ = v.audit.LogSuccess(audit.OpCredentialGenerate, s.username)
	return id, password, nil
}

// storeCredential encrypts and persists one credential. Callers hold the
// read lock.
func (v *Vault) storeCredential(s *Session, service, username, password string) (string, error) {
	masterKey, err := v.keys.Key()
	if err != nil {
		return "", err
	}

	ciphertext, err := crypto.EncryptString(masterKey, password)
	if err != nil {
		return "", err
	}

	id, err := v.creds.Add(s.username, service, username, ciphertext)
	if err != nil {
		return "", persistErr(err)
	}
	return id, nil
}

// ListCredentials returns the session user's credentials in insertion order
// without decrypting anything.
func (v *Vault) ListCredentials(s *Session) ([]CredentialInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return nil, ErrVaultClosed
	}
	if s == nil {
		return nil, ErrNotAuthenticated
	}

	records, err := v.creds.List(s.username)
	if err != nil {
		return nil, persistErr(err)
	}

	infos := make([]CredentialInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, CredentialInfo{
			ID:       r.ID,
			Service:  r.Service,
			Username: r.Username,
		})
	}

	_ = v.audit.LogSuccess(audit.OpCredentialList, s.username)
	return infos, nil
}

// RevealCredential decrypts one credential owned by the session's user.
func (v *Vault) RevealCredential(s *Session, id string) (*RevealedCredential, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return nil, ErrVaultClosed
	}
	if s == nil {
		return nil, ErrNotAuthenticated
	}

	record, err := v.creds.Get(s.username, id)
	if err != nil {
		return nil, persistErr(err)
	}

	masterKey, err := v.keys.Key()
	if err != nil {
		return nil, err
	}

	password, err := crypto.DecryptString(masterKey, record.Ciphertext)
	if err != nil {
		return nil, err
	}

	_ = v.audit.LogSuccess(audit.OpCredentialReveal, s.username)
	return &RevealedCredential{
		ID:       record.ID,
		Service:  record.Service,
		Username: record.Username,
		Password: password,
	}, nil
}

// AuditVerify checks the audit log chain integrity.
func (v *Vault) AuditVerify() (*audit.VerifyResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.db == nil {
		return nil, ErrVaultClosed
	}
	return v.audit.Verify()
}

// AuditLogger exposes the audit logger for read access.
func (v *Vault) AuditLogger() *audit.Logger {
	return v.audit
}

// checkAndWarnPermissions reports insecure vault file permissions on
// stderr. Advisory only; never blocks.
func (v *Vault) checkAndWarnPermissions() {
	if info, err := os.Stat(v.dir); err == nil {
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			fmt.Fprintf(os.Stderr, "warning: vault directory has insecure permissions %04o (expected 0700)\n", perm)
		}
	}

	files := []string{keystore.KeyFileName, DBFileName}
	for _, fname := range files {
		fpath := filepath.Join(v.dir, fname)
		if info, err := os.Stat(fpath); err == nil {
			if perm := info.Mode().Perm(); perm&0077 != 0 {
				fmt.Fprintf(os.Stderr, "warning: %s has insecure permissions %04o (expected 0600)\n", fname, perm)
			}
		}
	}
}

// persistErr maps store persistence failures to the vault-level sentinel
// while letting domain errors (unknown user, not found, ...) pass through.
func persistErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, identity.ErrPersistence) || errors.Is(err, credstore.ErrPersistence) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return err
}
