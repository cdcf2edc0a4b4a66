package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/mealplannr/internal/auth"
	"github.com/dukerupert/mealplannr/internal/config"
	"github.com/dukerupert/mealplannr/internal/database"
	"github.com/dukerupert/mealplannr/internal/email"
	"github.com/dukerupert/mealplannr/internal/logging"
	"github.com/dukerupert/mealplannr/internal/scheduler"
	"github.com/dukerupert/mealplannr/internal/server"
	"github.com/dukerupert/mealplannr/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "mealplannr",
		Short:         "Household networks and recipe sharing for Meal Plannr",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), migrateCmd(), userCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var cleanupSpec string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cleanupSpec)
		},
	}
	cmd.Flags().StringVar(&cleanupSpec, "cleanup", "@hourly", "Cron spec for expired token and rate limit cleanup")
	return cmd
}

func runServe(cleanupSpec string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireSecret(); err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	issuer, err := auth.NewIssuer(cfg.Secret, cfg.TokenTTL, cfg.LinkTTL)
	if err != nil {
		return err
	}

	mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail)
	if !mailer.Configured() {
		logger.Warn("MEALPLANNR_POSTMARK_TOKEN not set, invitation emails disabled")
	}

	srv := server.New(db, server.Config{
		Issuer:         issuer,
		Mailer:         mailer,
		BaseURL:        cfg.BaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
	}, logger)

	sched := scheduler.New(srv.ActionTokenStore(), srv.RateLimiter(), logger.With("component", "scheduler"))
	if err := sched.Start(cleanupSpec); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("meal plannr running", "addr", httpServer.Addr, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.OpenNoMigrate(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			return database.Migrate(db, command)
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var emailAddr, name string
	var admin bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(users *store.UserStore) error {
				u, err := users.Create(emailAddr, name, admin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
				return nil
			})
		},
	}
	add.Flags().StringVar(&emailAddr, "email", "", "Email address")
	add.Flags().StringVar(&name, "name", "", "Display name")
	add.Flags().BoolVar(&admin, "admin", false, "Grant the administrator role")
	add.MarkFlagRequired("email")

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(users *store.UserStore) error {
				all, err := users.List()
				if err != nil {
					return err
				}
				for _, u := range all {
					role := ""
					if u.IsAdmin {
						role = " (admin)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s%s\n", u.ID, u.Email, u.Name, role)
				}
				return nil
			})
		},
	}

	var adminEmail string
	var revoke bool
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant or revoke the administrator role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(users *store.UserStore) error {
				u, err := users.GetByEmail(adminEmail)
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("no user with email %q", adminEmail)
				}
				if err := users.SetAdmin(u.ID, !revoke); err != nil {
					return err
				}
				verb := "granted"
				if revoke {
					verb = "revoked"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "administrator role %s for %s\n", verb, u.Email)
				return nil
			})
		},
	}
	adminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address of the user")
	adminCmd.Flags().BoolVar(&revoke, "revoke", false, "Remove the administrator role instead")
	adminCmd.MarkFlagRequired("email")

	cmd.AddCommand(add, list, adminCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var emailAddr string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a session token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireSecret(); err != nil {
				return err
			}
			issuer, err := auth.NewIssuer(cfg.Secret, cfg.TokenTTL, cfg.LinkTTL)
			if err != nil {
				return err
			}
			return withStore(func(users *store.UserStore) error {
				u, err := users.GetByEmail(emailAddr)
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("no user with email %q", emailAddr)
				}
				token, expires, err := issuer.IssueSession(u.ID)
				if err != nil {
					return err
				}
				slog.Debug("issued session token", "user_id", u.ID, "expires", expires)
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&emailAddr, "email", "", "Email address of the user")
	cmd.MarkFlagRequired("email")
	return cmd
}

func withStore(fn func(users *store.UserStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return fn(store.NewUserStore(db))
}
