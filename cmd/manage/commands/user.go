package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/product_rating/internal/service"
)

var (
	userEmail    string
	userName     string
	userPassword string
)

var createUserCmd = &cobra.Command{
	Use:     "createuser",
	Short:   "Create an active user",
	Example: `  manage createuser --email alice@example.com --password secret --name Alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateUser(cmd, false)
	},
}

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an active staff superuser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateUser(cmd, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{createUserCmd, createSuperuserCmd} {
		c.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
		c.Flags().StringVar(&userPassword, "password", "", "Password (required)")
		c.Flags().StringVar(&userName, "name", "", "Display name")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
		rootCmd.AddCommand(c)
	}
}

func runCreateUser(cmd *cobra.Command, super bool) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	in := service.NewUser{Email: userEmail, Name: userName, Password: userPassword}
	create := e.users.CreateUser
	if super {
		create = e.users.CreateSuperuser
	}
	u, err := create(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
	return nil
}
