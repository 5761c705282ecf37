// Package credstore persists per-user service credentials. Each credential
// is owned by exactly one user and identified by a per-user sequential id
// (decimal string, 1-based). The stored password is a ciphertext token from
// pkg/crypto; this package never sees plaintext secrets.
package credstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Errors
var (
	// ErrNotFound indicates a credential id absent for the given user.
	ErrNotFound = errors.New("credstore: credential not found")

	// ErrEmptyService indicates an add with an empty service name.
	ErrEmptyService = errors.New("credstore: service name must not be empty")

	// ErrPersistence indicates an I/O-level storage failure or a malformed
	// persisted record.
	ErrPersistence = errors.New("credstore: persistence failure")
)

// Credential is one stored record. Ciphertext is the encrypted password
// token; ID is the per-user decimal id.
type Credential struct {
	ID         string
	Service    string
	Username   string
	Ciphertext string
}

// Store persists credential records.
type Store struct {
	db *sql.DB
}

// NewStore creates the credential schema if needed and returns a store
// bound to db.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			owner TEXT NOT NULL,
			seq INTEGER NOT NULL,
			service TEXT NOT NULL,
			username TEXT NOT NULL,
			ciphertext TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (owner, seq)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create credentials table: %v", ErrPersistence, err)
	}
	return &Store{db: db}, nil
}

// Add persists a new credential for owner and returns its id. The id is
// assigned as count+1 inside the insert transaction; no delete operation
// exists, so ids are stable. A future delete feature must revisit this
// assignment rather than inherit it.
func (s *Store) Add(owner, service, username, ciphertext string) (string, error) {
	if service == "" {
		return "", ErrEmptyService
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM credentials WHERE owner = ?", owner,
	).Scan(&count); err != nil {
		return "", fmt.Errorf("%w: failed to count credentials: %v", ErrPersistence, err)
	}

	seq := count + 1
	if _, err := tx.Exec(
		"INSERT INTO credentials (owner, seq, service, username, ciphertext) VALUES (?, ?, ?, ?, ?)",
		owner, seq, service, username, ciphertext,
	); err != nil {
		return "", fmt.Errorf("%w: failed to insert credential: %v", ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: failed to commit credential: %v", ErrPersistence, err)
	}

	return strconv.Itoa(seq), nil
}

// List returns all of owner's credentials in insertion order (ascending
// id). Other users' records are never touched.
func (s *Store) List(owner string) ([]Credential, error) {
	rows, err := s.db.Query(
		"SELECT seq, service, username, ciphertext FROM credentials WHERE owner = ? ORDER BY seq",
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query credentials: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var credentials []Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating credentials: %v", ErrPersistence, err)
	}

	return credentials, nil
}

// Get returns one credential by per-user id, or ErrNotFound.
func (s *Store) Get(owner, id string) (Credential, error) {
	seq, err := strconv.Atoi(id)
	if err != nil || seq < 1 {
		return Credential{}, ErrNotFound
	}

	var cred Credential
	cred.ID = id
	err = s.db.QueryRow(
		"SELECT service, username, ciphertext FROM credentials WHERE owner = ? AND seq = ?",
		owner, seq,
	).Scan(&cred.Service, &cred.Username, &cred.Ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("%w: failed to read credential: %v", ErrPersistence, err)
	}

	if cred.Service == "" || cred.Ciphertext == "" {
		return Credential{}, fmt.Errorf("%w: credential record is malformed", ErrPersistence)
	}
	return cred, nil
}

func scanCredential(rows *sql.Rows) (Credential, error) {
	var seq int
	var cred Credential
	if err := rows.Scan(&seq, &cred.Service, &cred.Username, &cred.Ciphertext); err != nil {
		return Credential{}, fmt.Errorf("%w: failed to scan credential: %v", ErrPersistence, err)
	}
	if cred.Service == "" || cred.Ciphertext == "" {
		return Credential{}, fmt.Errorf("%w: credential record is malformed", ErrPersistence)
	}
	cred.ID = strconv.Itoa(seq)
	return cred, nil
}
