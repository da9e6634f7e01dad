package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	tokenEmail    string
	tokenPassword string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed access token for an active user",
	Example: `  manage token --email alice@example.com --ttl 1h
  curl -H "Authorization: Bearer $(manage token --email alice@example.com)" localhost:8080/products/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if tokenPassword != "" {
			if err := e.users.VerifyPassword(cmd.Context(), tokenEmail, tokenPassword); err != nil {
				return fmt.Errorf("verify password: %w", err)
			}
		}

		tok, err := e.users.IssueToken(cmd.Context(), tokenEmail, tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email of the user (required)")
	tokenCmd.Flags().StringVar(&tokenPassword, "password", "", "Check this password before signing")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime, defaults to TOKEN_TTL")
	_ = tokenCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(tokenCmd)
}
