// Package identity persists per-user authentication records: a salted
// one-way password hash plus an ordered list of security questions used by
// the recovery flow. Records live in the vault's sqlite database and are
// validated on load so a malformed row surfaces as a persistence failure
// instead of a crash.
package identity

import (
	"database/sql"
	"errors"
	"fmt"
)

// Errors
var (
	// ErrDuplicateUser indicates a registration with an empty or already
	// taken username.
	ErrDuplicateUser = errors.New("identity: username is empty or already registered")

	// ErrUnknownUser indicates an operation against a username that has no
	// record.
	ErrUnknownUser = errors.New("identity: unknown user")

	// ErrRecoverySetupIncomplete indicates a commit attempted without a
	// complete, validated security-question set.
	ErrRecoverySetupIncomplete = errors.New("identity: security questions not configured")

	// ErrUnknownQuestion indicates a question outside the canonical list.
	ErrUnknownQuestion = errors.New("identity: question is not in the canonical list")

	// ErrEmptyAnswer indicates a blank security answer.
	ErrEmptyAnswer = errors.New("identity: security answer must not be empty")

	// ErrPersistence indicates an I/O-level storage failure or a malformed
	// persisted record.
	ErrPersistence = errors.New("identity: persistence failure")
)

// SecurityQuestion is one stored challenge: the canonical question text and
// the salted one-way hash of the normalized answer.
type SecurityQuestion struct {
	Question   string
	AnswerHash string
}

// QuestionAnswer is the cleartext input form of a security question, as
// collected by the presentation layer before hashing.
type QuestionAnswer struct {
	Question string
	Answer   string
}

// User is a registered identity. Users are never deleted by the engine;
// PasswordHash is replaced on successful recovery.
type User struct {
	Name         string
	PasswordHash string
	Questions    []SecurityQuestion
}

// Store persists identity records.
type Store struct {
	db *sql.DB
}

// NewStore creates the identity schema if needed and returns a store bound
// to db.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create users table: %v", ErrPersistence, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS security_questions (
			username TEXT NOT NULL,
			position INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer_hash TEXT NOT NULL,
			PRIMARY KEY (username, position)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create security_questions table: %v", ErrPersistence, err)
	}

	return &Store{db: db}, nil
}

// Exists reports whether a username has a record.
func (s *Store) Exists(username string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE username = ?", username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to query user: %v", ErrPersistence, err)
	}
	return true, nil
}

// Create registers a user with a password hash and a complete question set,
// in one transaction. An empty or taken username fails with
// ErrDuplicateUser; an empty question set fails with
// ErrRecoverySetupIncomplete before anything is written.
func (s *Store) Create(username, passwordHash string, questions []SecurityQuestion) error {
	if username == "" {
		return ErrDuplicateUser
	}
	if len(questions) == 0 {
		return ErrRecoverySetupIncomplete
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow("SELECT 1 FROM users WHERE username = ?", username).Scan(&one)
	if err == nil {
		return ErrDuplicateUser
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: failed to query user: %v", ErrPersistence, err)
	}

	if _, err := tx.Exec(
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	); err != nil {
		return fmt.Errorf("%w: failed to insert user: %v", ErrPersistence, err)
	}

	if err := insertQuestions(tx, username, questions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit registration: %v", ErrPersistence, err)
	}
	return nil
}

// Get loads a user and their questions in stored order. A missing record
// fails with ErrUnknownUser; a malformed row fails with ErrPersistence.
func (s *Store) Get(username string) (*User, error) {
	user := &User{Name: username}

	err := s.db.QueryRow(
		"SELECT password_hash FROM users WHERE username = ?", username,
	).Scan(&user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read user: %v", ErrPersistence, err)
	}
	if user.PasswordHash == "" {
		return nil, fmt.Errorf("%w: user record has empty password hash", ErrPersistence)
	}

	rows, err := s.db.Query(
		"SELECT question, answer_hash FROM security_questions WHERE username = ? ORDER BY position",
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read security questions: %v", ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var q SecurityQuestion
		if err := rows.Scan(&q.Question, &q.AnswerHash); err != nil {
			return nil, fmt.Errorf("%w: failed to scan security question: %v", ErrPersistence, err)
		}
		if q.Question == "" || q.AnswerHash == "" {
			return nil, fmt.Errorf("%w: security question record is malformed", ErrPersistence)
		}
		user.Questions = append(user.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating security questions: %v", ErrPersistence, err)
	}

	return user, nil
}

// UpdatePasswordHash replaces a user's password hash. Security questions
// are untouched.
func (s *Store) UpdatePasswordHash(username, passwordHash string) error {
	result, err := s.db.Exec(
		"UPDATE users SET password_hash = ? WHERE username = ?",
		passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update password hash: %v", ErrPersistence, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", ErrPersistence, err)
	}
	if affected == 0 {
		return ErrUnknownUser
	}
	return nil
}

// SetQuestions replaces a user's question set in one transaction. Used by
// the recovery flow's one-time setup for records predating mandatory
// questions.
func (s *Store) SetQuestions(username string, questions []SecurityQuestion) error {
	if len(questions) == 0 {
		return ErrRecoverySetupIncomplete
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow("SELECT 1 FROM users WHERE username = ?", username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("%w: failed to query user: %v", ErrPersistence, err)
	}

	if _, err := tx.Exec(
		"DELETE FROM security_questions WHERE username = ?", username,
	); err != nil {
		return fmt.Errorf("%w: failed to clear security questions: %v", ErrPersistence, err)
	}

	if err := insertQuestions(tx, username, questions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit security questions: %v", ErrPersistence, err)
	}
	return nil
}

func insertQuestions(tx *sql.Tx, username string, questions []SecurityQuestion) error {
	stmt, err := tx.Prepare(
		"INSERT INTO security_questions (username, position, question, answer_hash) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare statement: %v", ErrPersistence, err)
	}
	defer stmt.Close()

	for i, q := range questions {
		if _, err := stmt.Exec(username, i+1, q.Question, q.AnswerHash); err != nil {
			return fmt.Errorf("%w: failed to insert security question: %v", ErrPersistence, err)
		}
	}
	return nil
}
