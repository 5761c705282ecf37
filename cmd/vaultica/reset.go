package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resetPasswordCmd drives the security-question recovery flow.
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Reset a forgotten password via security questions",
	Long: `Reset a forgotten password by answering the account's security questions.

All answers must be correct; a single wrong answer aborts the whole flow and
the old password stays valid. Accounts created before security questions
were required must set them up here first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := v.NewRecovery(args[0])
		if err != nil {
			return fmt.Errorf("failed to start recovery: %w", err)
		}

		if flow.NeedsSetup() {
			fmt.Println("This account has no security questions yet; set them up now.")
			pairs, err := promptQuestionSelection()
			if err != nil {
				return err
			}
			if err := flow.SetupQuestions(pairs); err != nil {
				return fmt.Errorf("failed to set up security questions: %w", err)
			}
		}

		questions, err := flow.Questions()
		if err != nil {
			return err
		}

		answers := make([]string, 0, len(questions))
		for _, q := range questions {
			answer, err := promptLine(fmt.Sprintf("%s\nAnswer: ", q))
			if err != nil {
				return err
			}
			answers = append(answers, answer)
		}

		if err := flow.SubmitAnswers(answers); err != nil {
			return fmt.Errorf("recovery failed: %w", err)
		}

		password, err := promptPassword("New password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm new password: ")
		if err != nil {
			return err
		}

		if err := flow.SubmitNewPassword(password, confirm); err != nil {
			return fmt.Errorf("password reset failed: %w", err)
		}

		fmt.Printf("Password for '%s' has been reset\n", args[0])
		return nil
	},
}
