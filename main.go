// Command user_server_go serves the user API: registration, login and
// token-authorized profile lookups over a MySQL or SQLite user table.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"user_server_go/config"
	"user_server_go/controllers"
	"user_server_go/data"
	"user_server_go/logger"
	"user_server_go/server"
	"user_server_go/services"
)

type flags struct {
	serverConfig string
	dbConfig     string
	logConfig    string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "user_server_go",
		Short:         "User registration and token service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.serverConfig, "server-config", "config/http/server.json", "HTTP server configuration file")
	root.PersistentFlags().StringVar(&f.dbConfig, "db-config", "config/sql/databases.json", "database configuration file")
	root.PersistentFlags().StringVar(&f.logConfig, "log-config", "config/log/logger.json", "logger configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return serve(ctx, f)
			},
		},
		&cobra.Command{
			Use:   "init-db",
			Short: "Create the user table if it does not exist",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return initDB(cmd.Context(), f)
			},
		},
	)
	return root
}

// setup loads all configuration and opens the database pool.
func setup(ctx context.Context, f *flags) (*config.ServerConfig, *services.Services, *slog.Logger, error) {
	logCfg, err := config.LoadLogger(f.logConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	lg := logger.New(logCfg)

	srvCfg, err := config.LoadServer(f.serverConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	dbCfg, pool, err := config.LoadDatabase(f.dbConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	lg.Info("configuration loaded", "server", srvCfg.Addr(), "prefix", srvCfg.URLPrefix, "database", dbCfg.String())

	db, err := data.Open(ctx, dbCfg, pool)
	if err != nil {
		return nil, nil, nil, err
	}
	svcs, err := services.NewServices(ctx, srvCfg, db, lg)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	return srvCfg, svcs, lg, nil
}

func serve(ctx context.Context, f *flags) error {
	srvCfg, svcs, lg, err := setup(ctx, f)
	if err != nil {
		return err
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			lg.Error("failed to close database", "err", err)
		}
	}()

	router := controllers.NewRouter(controllers.Deps{
		Users:       svcs.Users,
		Log:         lg,
		Prefix:      srvCfg.URLPrefix,
		CORSOrigins: srvCfg.CORSAllowedOrigins,
	})
	if err := server.New(srvCfg, router, lg).Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func initDB(ctx context.Context, f *flags) error {
	srvCfg, svcs, lg, err := setup(ctx, f)
	if err != nil {
		return err
	}
	defer svcs.Close()
	lg.Info("user table ready", "table", srvCfg.UserTable)
	return nil
}
