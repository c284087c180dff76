/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the swear jar server. Handles configuration,
  dependency injection, and graceful shutdown. Also exposes maintenance
  subcommands for one-shot sync, backup and remote bootstrap.

COMMANDS:
  serve        Run the HTTP server (default)
  sync         Run one pull-merge-push cycle and exit
  export       Write a backup document to stdout or a file
  import       Restore a backup document
  init-remote  Create the shared gist and print its id

STARTUP SEQUENCE (serve):
  1. Load swearjar.yaml
  2. Open the SQLite document store
  3. Wire the service, sync engine and sweep scheduler
  4. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration format
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/swearjar/api"
	"github.com/warp/swearjar/config"
	"github.com/warp/swearjar/gist"
	"github.com/warp/swearjar/jar"
	"github.com/warp/swearjar/store/sqlite"
	"github.com/warp/swearjar/syncer"
)

var (
	cfgPath string
	logger  *zap.Logger
	cfg     *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swearjar",
		Short: "Office swear jar tracker",
		Long:  "Tracks infractions, vacations, bonuses and champions for the office swear jar, with optional gist-backed sync between devices.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = zap.NewProduction()
			if err != nil {
				return err
			}
			if cfgPath != "" {
				cfg, err = config.LoadFromPath(cfgPath)
			} else {
				cfg, err = config.Load()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to swearjar.yaml")

	rootCmd.AddCommand(serveCmd(), syncCmd(), exportCmd(), importCmd(), initRemoteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildService opens the store and wires the service plus, when configured,
// the sync engine. The caller owns the returned store.
func buildService() (*jar.Service, *syncer.Engine, *sqlite.Store, error) {
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	// The hook is bound late: the engine needs the service and the service
	// needs the engine's trigger.
	var notify func()
	svc := jar.NewService(store, cfg.Players, logger, jar.WithOnChange(func() {
		if notify != nil {
			notify()
		}
	}))

	var engine *syncer.Engine
	if cfg.SyncEnabled() {
		remote := gist.New(cfg.GithubToken(), cfg.Sync.GistID)
		engine = syncer.NewEngine(svc, remote, logger, cfg.Sync.Debounce)
		notify = engine.NotifyChange
	}
	return svc, engine, store, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, engine, store, err := buildService()
			if err != nil {
				return err
			}
			defer store.Close()

			syncCtx, cancelSync := context.WithCancel(context.Background())
			defer cancelSync()
			if engine != nil {
				go engine.Run(syncCtx)
			}

			scheduler := api.NewSweepScheduler(svc, logger)
			scheduler.Start()
			defer scheduler.Stop()

			handler := api.NewHandler(svc, engine, cfg, logger)
			server := &http.Server{
				Addr:         cfg.ListenAddr,
				Handler:      api.NewRouter(handler),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting",
					zap.String("addr", cfg.ListenAddr),
					zap.Bool("sync", engine != nil))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one pull-merge-push cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, store, err := buildService()
			if err != nil {
				return err
			}
			defer store.Close()

			if engine == nil {
				return syncer.ErrNotConfigured
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			return engine.Sync(ctx)
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup document",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, store, err := buildService()
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := svc.Export(context.Background())
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			if out == "" {
				_, err = os.Stdout.Write(append(raw, '\n'))
				return err
			}
			return os.WriteFile(out, raw, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	var forceReset bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Restore a backup document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, store, err := buildService()
			if err != nil {
				return err
			}
			defer store.Close()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc jar.ExportDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("parse backup: %w", err)
			}
			return svc.Import(context.Background(), &doc, forceReset)
		},
	}
	cmd.Flags().BoolVar(&forceReset, "force-reset", false, "Make this state authoritative for every device")
	return cmd
}

func initRemoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-remote",
		Short: "Create the shared gist and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := cfg.GithubToken()
			if token == "" {
				return fmt.Errorf("set %s to a GitHub token with the gist scope", cfg.Sync.TokenEnv)
			}

			d := jar.NewDataset(cfg.Players, time.Now())
			scores, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			achievements, err := json.MarshalIndent(jar.NewAwardStore(), "", "  ")
			if err != nil {
				return err
			}

			client := gist.New(token, "")
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			id, err := client.Create(ctx, "Swear jar shared data", scores, achievements)
			if err != nil {
				return err
			}
			fmt.Printf("Created gist %s\nAdd it to swearjar.yaml under sync.gistId\n", id)
			return nil
		},
	}
}
