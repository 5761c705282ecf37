package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vaultica/vaultica/pkg/identity"
	"github.com/vaultica/vaultica/pkg/security"
)

// RequiredQuestions is how many security questions a new account must set.
const RequiredQuestions = 3

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new vault account",
	Long: `Create a new vault account with a master password and security questions.

The password must be at least 8 characters with at least one uppercase and
one lowercase letter. The security questions are required: they are the only
way to reset a forgotten password. Answers are case- and whitespace-
insensitive, but every answer must be distinct.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := promptLine("Username: ")
		if err != nil {
			return err
		}

		password, err := promptPassword("Enter password: ")
		if err != nil {
			return err
		}

		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}

		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		if err := security.ValidatePassword(password); err != nil {
			return fmt.Errorf("password validation failed: %w", err)
		}
		fmt.Printf("Password strength: %s\n", security.Strength(password))

		questions, err := promptQuestionSelection()
		if err != nil {
			return err
		}

		if err := v.Register(username, password, questions); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Printf("Account '%s' created\n", username)
		return nil
	},
}

// promptQuestionSelection walks the user through picking RequiredQuestions
// distinct questions from the canonical list and answering them.
func promptQuestionSelection() ([]identity.QuestionAnswer, error) {
	fmt.Println()
	fmt.Printf("Choose %d security questions:\n", RequiredQuestions)
	for i, q := range identity.CanonicalQuestions {
		fmt.Printf("  %d. %s\n", i+1, q)
	}
	fmt.Println()

	chosen := make(map[int]bool)
	var pairs []identity.QuestionAnswer

	for len(pairs) < RequiredQuestions {
		input, err := promptLine(fmt.Sprintf("Question %d of %d (number): ", len(pairs)+1, RequiredQuestions))
		if err != nil {
			return nil, err
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(identity.CanonicalQuestions) {
			fmt.Printf("Enter a number between 1 and %d\n", len(identity.CanonicalQuestions))
			continue
		}
		if chosen[n] {
			fmt.Println("Question already chosen, pick another")
			continue
		}

		question := identity.CanonicalQuestions[n-1]
		answer, err := promptLine(fmt.Sprintf("  %s\n  Answer: ", question))
		if err != nil {
			return nil, err
		}
		if answer == "" {
			fmt.Println("Answer must not be blank")
			continue
		}

		chosen[n] = true
		pairs = append(pairs, identity.QuestionAnswer{Question: question, Answer: answer})
	}

	return pairs, nil
}
