package cmd

import (
	"errors"
	"fmt"

	"github.com/oumpowerman/thaoshare/database"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	var (
		email       string
		name        string
		createAdmin bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DB, database.Options{Logger: logger})
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			store := repository.New(db, nil).WithLogger(logger)
			ctx := cmd.Context()

			m, err := store.GetMemberByEmail(ctx, email)
			if errors.Is(err, repository.ErrNotFound) && createAdmin {
				if name == "" {
					name = email
				}
				m = models.Member{Email: email, Name: name, Role: models.RoleAdmin}
				if err = store.CreateMember(ctx, &m); err == nil {
					logger.Info("admin created", "member", m.ID)
				}
			}
			if err != nil {
				return err
			}

			tok, err := middlewares.IssueToken(cfg.Auth.JWTSecret, m, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "member email")
	cmd.Flags().StringVar(&name, "name", "", "display name when creating an admin")
	cmd.Flags().BoolVar(&createAdmin, "create-admin", false, "create the member as ADMIN if missing")
	return cmd
}
