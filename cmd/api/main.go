package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"shelter-clinical-records/internal/adapters/storage/sqlstore"
	"shelter-clinical-records/internal/config"
	"shelter-clinical-records/internal/platform/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shelter-records",
		Short:         "Prontuário clínico del abrigo",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Sin subcomando: levanta el servidor.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		createAdminCmd(),
		setActiveCmd("deactivate-user", "Desactiva una cuenta por email", false),
		setActiveCmd("activate-user", "Reactiva una cuenta por email", true),
	)
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Aplica el schema y levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema embebido y purga sesiones vencidas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			n, err := sqlstore.NewSessionStore(env.db).DeleteExpired(cmd.Context(), nowUTC())
			if err != nil {
				return err
			}
			env.log.Info("migration done", map[string]any{"driver": env.cfg.Database.Driver, "expired_sessions": n})
			return nil
		},
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

// env agrupa lo que comparten los subcomandos.
type env struct {
	cfg *config.Config
	log logger.Logger
	db  *sqlstore.DB
}

func (e *env) close() {
	_ = e.db.Close()
	logger.Sync(e.log)
}

// bootstrap carga config, arma el logger, abre el store y aplica el schema.
func bootstrap(ctx context.Context) (*env, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	opts := logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	}
	if cfg.Log.Output == "file" {
		opts.File = cfg.Log.File
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	target := cfg.Database.Path
	if cfg.Database.Driver == config.DriverPostgres {
		target = cfg.Database.DSN
	}
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, target)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}
