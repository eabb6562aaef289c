// Command eventual runs the event platform's content API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventual-app/eventual/pkg/config"
	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/health"
	"github.com/eventual-app/eventual/pkg/httpapi"
	"github.com/eventual-app/eventual/pkg/media"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/eventual-app/eventual/pkg/observability/metrics"
	"github.com/eventual-app/eventual/pkg/server"
	storagemongo "github.com/eventual-app/eventual/pkg/storage/mongo"
	"github.com/eventual-app/eventual/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "eventual",
		Short: "Content API for events, countries, users and media",
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config-file", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cmd.Context(), cfg, log)
		},
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current("eventual")
			fmt.Printf("Service:    %s\n", info.Service)
			fmt.Printf("Version:    %s\n", info.Version)
			fmt.Printf("Commit:     %s\n", info.Commit)
			fmt.Printf("Build Time: %s\n", info.BuildTime)
		},
	})

	return rootCmd
}

func loadConfigAndLogger(cfgPath string, flags *pflag.FlagSet) (*config.Config, *logger.ZapLogger, error) {
	cfg, err := config.NewViperLoader(cfgPath).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if override, _ := flags.GetString("log-level"); override != "" {
		cfg.Observability.LogLevel = override
	}

	level, err := logger.ParseLogLevel(cfg.Observability.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	format, err := logger.ParseLogFormat(cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewZapLogger(logger.Config{Level: level, Format: format})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

func runServer(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	log.Info("starting service", "version", version.Current(cfg.Service.Name).String(), "environment", cfg.Service.Environment)

	db, err := storagemongo.NewAdapter(storagemongo.Config{
		URL:              cfg.Database.URL,
		Database:         cfg.Database.Database,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		OperationTimeout: cfg.Database.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("connect document store: %w", err)
	}
	defer db.Close()

	healthRegistry := health.NewRegistry()
	healthRegistry.Register("mongodb", db)

	var uploader httpapi.Uploader
	if cfg.Media.Enabled {
		store, err := media.NewStore(media.Config{
			Bucket:          cfg.Media.Bucket,
			Region:          cfg.Media.Region,
			Endpoint:        cfg.Media.Endpoint,
			AccessKeyID:     cfg.Media.AccessKeyID,
			SecretAccessKey: cfg.Media.SecretAccessKey,
			KeyPrefix:       cfg.Media.KeyPrefix,
			PublicBaseURL:   cfg.Media.PublicBaseURL,
			UsePathStyle:    cfg.Media.UsePathStyle,
		}, log)
		if err != nil {
			return fmt.Errorf("connect media store: %w", err)
		}
		defer store.Close()
		healthRegistry.Register("media", store)
		uploader = store
	}

	events, err := document.NewRepository(db, "events", document.WithTimestamps())
	if err != nil {
		return err
	}
	countries, err := document.NewRepository(db, "countries")
	if err != nil {
		return err
	}
	users, err := document.NewRepository(db, "users")
	if err != nil {
		return err
	}
	mediaDocs, err := document.NewRepository(db, "media", document.WithTimestamps())
	if err != nil {
		return err
	}

	publicServer := server.NewPublicAPIServer(cfg, log,
		httpapi.NewEventsController(events, log),
		httpapi.NewCountriesController(countries, log),
		httpapi.NewUsersController(users, log),
		httpapi.NewMediaController(mediaDocs, uploader, log),
	)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)
	go func() { errChan <- publicServer.Start(runCtx) }()

	if cfg.Management.Enabled {
		var metricsRegistry *metrics.Registry
		if cfg.Observability.MetricsEnabled {
			metricsRegistry = metrics.NewRegistry()
		}
		mgmtServer := server.NewManagementServer(cfg, log, healthRegistry, metricsRegistry)
		go func() { errChan <- mgmtServer.Start(runCtx) }()
	}

	select {
	case err := <-errChan:
		stop()
		return err
	case <-runCtx.Done():
		// Start handles the graceful shutdown; wait for the public server
		// to report back.
		return <-errChan
	}
}
