/* main.go
 * The "main" method for running the bot. Configuration is read from the environment and an optional .env file,
 * see config/config.go for the variables
 * Usage: publicbot [--env .env]        run the bot and the health endpoint
 *        publicbot migrate [--env .env] create or update the participants schema and exit
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vlakddp4/publicbot/api/api"
	"github.com/vlakddp4/publicbot/api/media"
	"github.com/vlakddp4/publicbot/api/store"
	"github.com/vlakddp4/publicbot/bot"
	"github.com/vlakddp4/publicbot/config"
	"github.com/vlakddp4/publicbot/telemetry"
	"github.com/vlakddp4/publicbot/web"
)

const defaultEnvFile = ".env"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "publicbot",
		Short:         "Discord bot for in-house tournament registration",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			return runBot(cmd.Context(), cfg)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", defaultEnvFile, "path of an optional .env file")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the participants schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg.Store())
		},
	}
	rootCmd.AddCommand(migrateCmd)

	return rootCmd
}

// runBot serves Discord interactions and the health endpoint until SIGINT or SIGTERM
func runBot(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var traceOut io.Writer
	if cfg.TraceStdout {
		traceOut = os.Stdout
	}
	shutdownTracing, err := telemetry.Setup(traceOut)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("failed to flush traces: %v", err)
		}
	}()

	mirror, err := newMirror(ctx, cfg.R2())
	if err != nil {
		return err
	}

	log.Printf("opening %s store (%s)", storeDriver(cfg.Store()), storeTarget(cfg.Store()))
	apiPtr, err := api.NewAPI(ctx, cfg.Store(), mirror)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	defer func() {
		if err := apiPtr.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}()
	apiPtr.PageSize = cfg.PageSize

	discordBot, err := bot.NewBot(cfg.DiscordToken, cfg.AllowedGuildID, apiPtr)
	if err != nil {
		return err
	}
	discordBot.ConfirmationTTL = cfg.ConfirmationTTL

	webErr := make(chan error, 1)
	go func() {
		webErr <- web.Start(ctx, web.Config{Addr: cfg.HTTPAddr, Store: apiPtr.Store})
	}()

	botErr := discordBot.Run(ctx)
	stop()

	if err := <-webErr; err != nil {
		log.Printf("HTTP server stopped: %v", err)
	}
	return botErr
}

// runMigrate opens the store, which brings the schema up to date, and closes it again
func runMigrate(ctx context.Context, cfg store.Config) error {
	log.Printf("migrating %s store (%s)", storeDriver(cfg), storeTarget(cfg))
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	log.Println("participants schema is up to date")
	return nil
}

// newMirror uploads profile images to R2 when it is configured, otherwise the Discord URL is kept
func newMirror(ctx context.Context, cfg media.R2Config) (media.Mirror, error) {
	if !cfg.Enabled() {
		if cfg.AccountID != "" || cfg.Bucket != "" {
			return nil, errors.New("R2 is partially configured: account id, access key, secret and bucket are all required")
		}
		log.Println("R2 not configured, storing Discord attachment URLs")
		return media.Passthrough{}, nil
	}
	mirror, err := media.NewR2Mirror(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize R2 mirror: %w", err)
	}
	return mirror, nil
}
