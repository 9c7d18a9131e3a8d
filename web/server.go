//go:build !test

/* server.go
 * Contains the HTTP server Start function that listens for incoming connections.
 * Excluded from test coverage as it blocks and requires real network binding.
 */

package web

import (
	"context"
	"log"
	"time"
)

// Start serves the health endpoint on cfg.Addr until ctx is cancelled
func Start(ctx context.Context, cfg Config) error {
	app := NewServer(cfg).App()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Println("HTTP server shutdown failed:", err)
		}
	}()

	log.Println("HTTP server listening on", cfg.Addr)
	return app.Listen(cfg.Addr)
}
