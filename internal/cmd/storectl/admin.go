package storectl

import (
	"fmt"
	"time"

	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAdminCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin console accounts",
	}
	cmd.AddCommand(newAdminCreateCommand(opts), newAdminPromoteCommand(opts))
	return cmd
}

func newAdminCreateCommand(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with the admin role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			service := auth.NewService(store, nil, auth.PasskeyConfig{}, opts.logger.Named("auth"))
			u, err := service.CreateUser(cmd.Context(), email, password, account.RoleAdmin)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminPromoteCommand(opts *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			normalized, err := account.NormalizeEmail(email)
			if err != nil {
				return err
			}
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := store.GetUserByEmail(cmd.Context(), normalized)
			if err != nil {
				return fmt.Errorf("find %s: %w", normalized, err)
			}
			if u.IsAdmin() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already an admin\n", u.Email)
				return nil
			}
			if err := store.UpdateUserRole(cmd.Context(), u.ID, account.RoleAdmin, time.Now()); err != nil {
				return fmt.Errorf("promote %s: %w", u.Email, err)
			}
			opts.logger.Info("user promoted", zap.String("user_id", u.ID), zap.String("email", u.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "promoted %s to admin\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
