package main

import (
	"errors"
	"fmt"
	"os"

	"shelter-clinical-records/internal/adapters/storage/sqlstore"
	"shelter-clinical-records/internal/domain/users"
	"shelter-clinical-records/internal/platform/apperr"

	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crea una cuenta admin (el rol no es auto-registrable)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			svc := users.NewService(sqlstore.NewUsersRepo(env.db))
			u, err := svc.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				if ve, ok := apperr.AsValidation(err); ok {
					return fmt.Errorf("invalid %s (%s)", ve.Field, ve.MessageID)
				}
				if errors.Is(err, users.ErrDuplicateEmail) {
					return fmt.Errorf("email %s already registered", email)
				}
				return err
			}
			env.log.Info("admin created", map[string]any{"user_id": u.ID, "email": u.Email})
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Admin", "nombre visible")
	cmd.Flags().StringVar(&email, "email", "", "email de login")
	cmd.Flags().StringVar(&password, "password", "", "password (o ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			svc := users.NewService(sqlstore.NewUsersRepo(env.db))
			if err := svc.SetActive(cmd.Context(), email, active); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return fmt.Errorf("no user with email %s", email)
				}
				return err
			}
			env.log.Info("user updated", map[string]any{"email": email, "active": active})
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email de la cuenta")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
