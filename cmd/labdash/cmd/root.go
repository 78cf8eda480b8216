// Package cmd holds the labdash commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/collab"
	"github.com/mikeboe/lab-dashboard/pkg/config"
	"github.com/mikeboe/lab-dashboard/pkg/output"
	"github.com/mikeboe/lab-dashboard/pkg/search"
	"github.com/mikeboe/lab-dashboard/pkg/session"
	"github.com/mikeboe/lab-dashboard/pkg/storage"
)

var (
	cfgFile   string
	verbose   bool
	colorFlag string
	cfg       *config.Config
	logger    *slog.Logger
	version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "labdash",
	Short: "Lab collaboration dashboard in the terminal",
	Long: `labdash searches the dashboard, lists labs and researchers and runs the
collaboration flow against the lab backend.

Example usage:
  labdash search                 # Interactive search palette
  labdash search scores          # One-shot search
  labdash login --email me@lab.org --password ...
  labdash suggestions            # Rule-based collaboration suggestions
  labdash ai                     # Stream AI recommendations
  labdash send --lab-id 4 --lab-name "Vision Lab" --domain "Computer Vision"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the command line; an interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always or never")
}

func initConfig() error {
	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelWarn
	if verbose || cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	logger.Debug("configuration loaded",
		"api_base_url", cfg.APIBaseURL,
		"storage_backend", cfg.StorageBackend,
	)
	return nil
}

// app is what a command needs to talk to the backend.
type app struct {
	printer *output.Printer
	backend *storage.Backend
	auth    *session.Session
	client  *api.Client
}

func openApp(cmd *cobra.Command) (*app, error) {
	mode, err := output.ParseColorMode(colorFlag)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	auth := session.New(b.Store, logger)
	if err := auth.Init(ctx); err != nil {
		b.Close()
		return nil, err
	}
	if auth.Expired(time.Now()) {
		logger.Warn("Stored session token has expired; run labdash login")
	}

	return &app{
		printer: output.NewPrinterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode)),
		backend: b,
		auth:    auth,
		client: api.NewClient(cfg.APIBaseURL,
			api.WithTimeout(cfg.RequestTimeout),
			api.WithTokenSource(auth),
			api.WithLogger(logger)),
	}, nil
}

func (a *app) Close() {
	a.backend.Close()
}

func (a *app) controller() *collab.Controller {
	return collab.NewController(a.client, api.NewAIChannel(cfg.AIChannelURL(), a.auth), collab.Options{
		OrgName:   cfg.OrgName,
		AITimeout: cfg.AITimeout,
		Logger:    logger,
	})
}

func (a *app) searchModal() *search.Modal {
	return search.NewModal(
		search.NewIndex(search.DefaultCatalog()),
		search.NewRecent(a.backend.Store, logger),
		search.NavigatorFunc(func(path string) {
			a.printer.Success("Open %s", path)
		}),
	)
}
