package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/campus-events/internal/database"
	"github.com/Shivanand-hulikatti/campus-events/internal/handler"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(database.Up), string(database.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := database.Up
		if len(args) == 1 {
			dir = database.Direction(strings.ToLower(args[0]))
		}
		if err := database.Migrate(cfg.DB, dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", dir)
		return nil
	},
}

var tokenFlags struct {
	user, name, role string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSecret(); err != nil {
			return err
		}
		role := model.Role(tokenFlags.role)
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
		tok, err := handler.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL).IssueToken(model.Actor{
			ID: tokenFlags.user, Name: tokenFlags.name, Role: role,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var userFlags struct {
	name, email, role string
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage directory users",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user to the directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		u, err := service.NewUserService(st.users).CreateUser(cmd.Context(), userFlags.name, userFlags.email, model.Role(userFlags.role))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Email, u.Role)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild each user's event list from the attendee records",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		added, removed, err := service.NewUserService(st.users).Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added=%d removed=%d\n", added, removed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.user, "user", "", "user id (token subject)")
	tokenCmd.Flags().StringVar(&tokenFlags.name, "name", "", "display name")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", string(model.RoleUser), "user role")
	_ = tokenCmd.MarkFlagRequired("user")

	usersAddCmd.Flags().StringVar(&userFlags.name, "name", "", "display name")
	usersAddCmd.Flags().StringVar(&userFlags.email, "email", "", "email address")
	usersAddCmd.Flags().StringVar(&userFlags.role, "role", string(model.RoleUser), "user role")
	_ = usersAddCmd.MarkFlagRequired("name")
	_ = usersAddCmd.MarkFlagRequired("email")
	usersCmd.AddCommand(usersAddCmd)
}
