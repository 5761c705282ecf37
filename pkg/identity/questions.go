package identity

import "github.com/vaultica/vaultica/pkg/security"

// CanonicalQuestions is the fixed list a question set must draw from.
var CanonicalQuestions = []string{
	"What was the name of your first pet?",
	"What is your mother's maiden name?",
	"In what city were you born?",
	"What was the name of your first school?",
	"What was the make of your first car?",
	"What is the name of your favorite teacher?",
}

// IsCanonicalQuestion reports whether q is in the canonical list.
func IsCanonicalQuestion(q string) bool {
	for _, canonical := range CanonicalQuestions {
		if q == canonical {
			return true
		}
	}
	return false
}

// BuildQuestions validates a cleartext question set and hashes the answers.
// It enforces the complete-set rules before anything touches storage:
// at least one question, all questions canonical, no blank answers, and no
// two answers normalizing to the same value.
func BuildQuestions(pairs []QuestionAnswer) ([]SecurityQuestion, error) {
	if len(pairs) == 0 {
		return nil, ErrRecoverySetupIncomplete
	}

	answers := make([]string, len(pairs))
	for i, pair := range pairs {
		if !IsCanonicalQuestion(pair.Question) {
			return nil, ErrUnknownQuestion
		}
		if security.NormalizeAnswer(pair.Answer) == "" {
			return nil, ErrEmptyAnswer
		}
		answers[i] = pair.Answer
	}

	if err := security.CheckAnswerSet(answers); err != nil {
		return nil, err
	}

	questions := make([]SecurityQuestion, len(pairs))
	for i, pair := range pairs {
		hash, err := HashAnswer(pair.Answer)
		if err != nil {
			return nil, err
		}
		questions[i] = SecurityQuestion{Question: pair.Question, AnswerHash: hash}
	}
	return questions, nil
}
