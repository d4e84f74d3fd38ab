// nlogd manages the logging configuration of one pipeline instance.
//
// It loads a YAML logging document, installs it into the instance, reloads
// it when the file changes or on a timer, and exposes the instance over an
// HTTP admin API and MQTT. Every lifecycle event is recorded in a SQLite
// audit trail and counted in Prometheus metrics (optionally InfluxDB).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cherubic/NLog/internal/auth"
	"github.com/cherubic/NLog/internal/infrastructure/config"
	"github.com/cherubic/NLog/internal/infrastructure/database"
	"github.com/cherubic/NLog/internal/resolver"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is used when neither --config nor NLOG_CONFIG is set.
const defaultConfigPath = "configs/nlogd.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The root command runs the daemon.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "nlogd",
		Short:         "Logging configuration lifecycle daemon",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(),
		"daemon configuration file (env NLOG_CONFIG)")

	root.AddCommand(newResolveCmd(&configPath), newTokenCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

// newResolveCmd prints where a logging document name resolves to.
func newResolveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the path a logging configuration name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return printResolved(cmd.OutOrStdout(), newResolver(cfg), args[0])
		},
	}
}

// newTokenCmd mints an admin API bearer token from the configured secret.
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if ttl == 0 {
				ttl = cfg.GetTokenTTL()
			}
			token, err := auth.GenerateToken(subject, auth.Role(role), cfg.Admin.Auth.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject, recorded in the audit trail")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleOperator), "viewer or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default admin.auth.token_ttl)")
	return cmd
}

// newMigrateCmd inspects and reverts audit database migrations.
func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the audit database schema",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), *configPath, func(db *database.DB) error {
				applied, pending, err := db.MigrationStatus(cmd.Context())
				if err != nil {
					return err
				}
				return printMigrationStatus(cmd.OutOrStdout(), applied, pending)
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recently applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), *configPath, func(db *database.DB) error {
				return db.MigrateDown(cmd.Context())
			})
		},
	}

	cmd.AddCommand(status, down)
	return cmd
}

// withDatabase opens the configured audit database for fn, whether or not
// the daemon has it enabled.
func withDatabase(ctx context.Context, configPath string, fn func(*database.DB) error) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-mostly, fn's error matters
	return fn(db)
}

func printMigrationStatus(w io.Writer, applied []database.MigrationRecord, pending []database.Migration) error {
	for _, r := range applied {
		if _, err := fmt.Fprintf(w, "applied  %s  %s\n", r.Version, r.AppliedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	for _, m := range pending {
		if _, err := fmt.Fprintf(w, "pending  %s  %s\n", m.Version, m.Name); err != nil {
			return err
		}
	}
	return nil
}

func printResolved(w io.Writer, r *resolver.Resolver, name string) error {
	_, err := fmt.Fprintln(w, r.Resolve(name))
	return err
}

// getConfigPath returns the configuration file path.
// Uses NLOG_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NLOG_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newResolver builds the document resolver from the pipeline settings.
func newResolver(cfg *config.Config) *resolver.Resolver {
	return resolver.New(resolver.OSEnvironment{
		SearchDirs:        cfg.Pipeline.SearchDirs,
		IncludeWorkingDir: cfg.Pipeline.IncludeWorkingDir,
	}, resolver.FileExists)
}
