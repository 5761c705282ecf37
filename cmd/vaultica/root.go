package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vaultica/vaultica/pkg/config"
	"github.com/vaultica/vaultica/pkg/keystore"
	"github.com/vaultica/vaultica/pkg/vault"
)

var (
	vaultDir string
	cfg      *config.Config
	v        *vault.Vault
)

var rootCmd = &cobra.Command{
	Use:   "vaultica",
	Short: "vaultica is a local credential vault",
	Long: `A local credential vault: per-user accounts, encrypted password storage,
and security-question password recovery. All data stays on this machine.`,
	// PersistentPreRunE runs before every subcommand and opens the vault.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The completion command works without a vault.
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		if vaultDir == "" {
			dir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			vaultDir = dir
		}

		var err error
		cfg, err = config.Load(vaultDir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cfg.RequireElevated && !isElevated() {
			return fmt.Errorf("this vault requires elevated privileges (require_elevated is set)")
		}

		opts := &vault.Options{}
		if cfg.KeyBackend == config.BackendKeyring {
			opts.KeyBackend = keystore.NewKeyringBackend()
		}

		v, err = vault.Open(vaultDir, opts)
		if err != nil {
			return fmt.Errorf("failed to open vault: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if v != nil {
			v.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault-dir", "", "Vault directory (default: $VAULTICA_HOME or ~/.vaultica)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(revealCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(auditCmd)

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditVerifyCmd)

	generateCmd.Flags().IntVar(&generateLength, "length", 20, "Generated password length (14-64)")
	generateCmd.Flags().BoolVar(&generateCopy, "copy", false, "Copy the generated password to the clipboard instead of printing it")
	revealCmd.Flags().BoolVar(&revealCopy, "copy", false, "Copy the password to the clipboard instead of printing it")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum number of events to show")
}

var stdin = bufio.NewReader(os.Stdin)

// promptLine reads one line of visible input.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads hidden input from the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// promptSession prompts for username and password and logs in.
func promptSession() (*vault.Session, error) {
	username, err := promptLine("Username: ")
	if err != nil {
		return nil, err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return nil, err
	}

	session, err := v.Login(username, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return session, nil
}
