package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	generateLength int
	generateCopy   bool
	revealCopy     bool
)

// addCmd stores a credential with a password supplied by the user.
var addCmd = &cobra.Command{
	Use:   "add <service> <username>",
	Short: "Store a credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := promptSession()
		if err != nil {
			return err
		}

		secret, err := promptPassword(fmt.Sprintf("Password for %s: ", args[0]))
		if err != nil {
			return err
		}

		id, err := v.AddCredential(session, args[0], args[1], secret)
		if err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}

		fmt.Printf("Credential %s stored for %s\n", id, args[0])
		return nil
	},
}

// generateCmd stores a credential with a freshly generated password.
var generateCmd = &cobra.Command{
	Use:   "generate <service> <username>",
	Short: "Generate and store a credential",
	Long: `Generate a random password, store it encrypted, and show it once.

The password mixes letters, digits, and symbols. Length must be between 14
and 64 characters. With --copy the password goes to the clipboard instead
of the terminal.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := promptSession()
		if err != nil {
			return err
		}

		id, password, err := v.GenerateCredential(session, args[0], args[1], generateLength)
		if err != nil {
			return fmt.Errorf("failed to generate credential: %w", err)
		}

		fmt.Printf("Credential %s stored for %s\n", id, args[0])
		if generateCopy {
			if err := clipboard.WriteAll(password); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
			fmt.Println("Generated password copied to clipboard")
		} else {
			fmt.Printf("Generated password: %s\n", password)
		}
		return nil
	},
}

// listCmd lists the user's credentials without decrypting them.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := promptSession()
		if err != nil {
			return err
		}

		infos, err := v.ListCredentials(session)
		if err != nil {
			return fmt.Errorf("failed to list credentials: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No credentials stored")
			return nil
		}

		fmt.Printf("%-6s %-30s %s\n", "ID", "SERVICE", "USERNAME")
		for _, info := range infos {
			fmt.Printf("%-6s %-30s %s\n", info.ID, info.Service, info.Username)
		}
		return nil
	},
}

// revealCmd decrypts one credential.
var revealCmd = &cobra.Command{
	Use:   "reveal <id>",
	Short: "Reveal a stored password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := promptSession()
		if err != nil {
			return err
		}

		record, err := v.RevealCredential(session, args[0])
		if err != nil {
			return fmt.Errorf("failed to reveal credential: %w", err)
		}

		fmt.Printf("Service:  %s\n", record.Service)
		fmt.Printf("Username: %s\n", record.Username)
		if revealCopy {
			if err := clipboard.WriteAll(record.Password); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
			fmt.Println("Password copied to clipboard")
		} else {
			fmt.Printf("Password: %s\n", record.Password)
		}
		return nil
	},
}
