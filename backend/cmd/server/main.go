package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/Huddle/backend/internal/config"
	"github.com/BioHazard786/Huddle/backend/internal/logging"
	"github.com/BioHazard786/Huddle/backend/internal/server"
	"github.com/BioHazard786/Huddle/backend/internal/signaling"
)

var (
	flagEnvFile        string
	flagAddr           string
	flagOrigins        []string
	flagMaxChatHistory int
	flagStats          bool
	flagLogLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "huddle-server",
	Short: "Room coordinator and signaling relay for Huddle video calls",
	Long: `huddle-server tracks who is in each call, gates entry through a host-controlled
waiting room, relays WebRTC negotiation messages between peers and replays chat
history to new joiners.

Configuration is read from flags, then HUDDLE_* environment variables (and an
optional .env file), then built-in defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := config.Options{
			EnvFile:        flagEnvFile,
			Addr:           flagAddr,
			AllowedOrigins: flagOrigins,
			LogLevel:       flagLogLevel,
		}
		if cmd.Flags().Changed("max-chat-history") {
			opts.MaxChatHistory = &flagMaxChatHistory
		}
		if cmd.Flags().Changed("stats") {
			opts.EnableStats = &flagStats
		}
		return run(opts)
	},
}

func run(opts config.Options) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	log := logging.Init(cfg.LogLevel)

	hub := signaling.NewHub(log, signaling.Options{MaxChatHistory: cfg.MaxChatHistory})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(hub, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Info("Starting signaling server", "addr", cfg.Addr, "stats", cfg.EnableStats)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	done := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
		"hub": func(ctx context.Context) error {
			hub.Close()
			return nil
		},
	})

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	case code := <-done:
		if code != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", code)
		}
	}
	log.Info("Signaling server stopped")
	return nil
}

func main() {
	rootCmd.Flags().StringVar(&flagEnvFile, "env-file", "", "Load environment variables from this file")
	rootCmd.Flags().StringVarP(&flagAddr, "addr", "a", "", "Listen address (default :8080)")
	rootCmd.Flags().StringSliceVar(&flagOrigins, "origin", nil, "Allowed websocket origin, repeatable (default any)")
	rootCmd.Flags().IntVar(&flagMaxChatHistory, "max-chat-history", 0, "Chat messages kept per room for replay, 0 keeps all")
	rootCmd.Flags().BoolVar(&flagStats, "stats", false, "Serve the unauthenticated /stats endpoint")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
