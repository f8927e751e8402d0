package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ispplus/ispplus/internal/auth"
	"github.com/ispplus/ispplus/internal/database"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage application users",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var username, password, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an application user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parsedRole, err := database.ParseRole(role)
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			m, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer m.Close()

			users := database.NewUserRepository(m)
			user, err := users.Create(ctx, &database.User{
				Username:     username,
				PasswordHash: hash,
				Role:         parsedRole,
			})
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("user %q already exists", username)
			}
			if err != nil {
				return err
			}

			log.Info().Int64("id", user.ID).Str("username", user.Username).Str("role", user.Role.String()).Msg("User created")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Login name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Plain password (hashed with bcrypt before storing)")
	cmd.Flags().StringVarP(&role, "role", "r", database.RoleViewer.String(), "Role: ADMIN, OPERATOR or VIEWER")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List application users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer m.Close()

			repo := database.NewUserRepository(m)
			count, err := repo.Count(ctx)
			if err != nil {
				return err
			}
			if count == 0 {
				log.Warn().Msg("No users exist yet; create one with 'ispplus user add'")
				return nil
			}

			users, err := repo.List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.Role)
			}
			return w.Flush()
		},
	}
}
