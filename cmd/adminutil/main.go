package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/config"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/logger"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/payments"
	"github.com/sudo-init-do/distal/internal/repository"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "adminutil",
		Short:         "Operator tasks for the distal database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(migrateCmd(), promoteCmd(), reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: config, a logger and an open pool.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	repos *repository.Repositories
	close func()
}

func open(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.Init(cfg.LogLevel, "console")
	if err != nil {
		return nil, err
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if _, err := db.Migrate(pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &env{cfg: cfg, log: log, repos: repository.NewPostgres(pool), close: func() {
		pool.Close()
		logger.Sync()
	}}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func promoteCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set a user's role",
		Example: `  adminutil promote --email ops@example.com
  adminutil promote --email ana@example.com --role provider`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.Role(role)
			if r != models.RoleClient && r != models.RoleProvider && r != models.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}
			email = strings.ToLower(strings.TrimSpace(email))
			e, err := open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.repos.Users.SetRole(cmd.Context(), email, r); err != nil {
				return fmt.Errorf("no user updated for %s: %w", email, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is now %s.\n", email, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to update")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "role to assign (client, provider, admin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-payments",
		Short: "Fail checkout payments that never received a session reference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			ids, err := payments.NewReconciler(e.repos.Payments, e.cfg.ReconcileAfter, metrics.New(), e.log).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d payment(s) marked failed\n", len(ids))
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
