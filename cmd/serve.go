package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/api"
	"github.com/jon4hz/eduquest/internal/engine"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmdFlags struct {
	Debug bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the EduQuest server",
	Long:  `Start the EduQuest server. The schema is migrated and the bootstrap admin created before the API starts listening.`,
	Example: `eduquest serve --config config.yml
eduquest serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	serveCmd.Flags().BoolVar(&serveCmdFlags.Debug, "debug", false, "Run gin in debug mode")
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, db := loadConfigAndDB()
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := engine.New(ctx, cfg, db)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close() //nolint:errcheck

	if err := engine.EnsureBootstrapAdmin(ctx); err != nil {
		log.Fatalf("failed to create bootstrap admin: %v", err)
	}

	server, err := api.New(cfg, engine, serveCmdFlags.Debug || log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(ctx)
	})
	g.Go(func() error {
		return server.Run(ctx)
	})

	log.Info("eduquest started successfully")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped with error", "error", err)
		return
	}
	log.Info("shut down gracefully")
}
