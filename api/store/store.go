/* store.go
 * Contains the store Config and the Open function that picks an engine. The engines are split into
 * sqlite.go, mongo.go and postgres.go, each of which owns exactly one connection to its database
 */

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	participantsTable = "participants"
)

// Config selects and configures a store engine
type Config struct {
	Driver   string
	Path     string // sqlite database file
	URI      string // mongo connection string
	Database string // mongo database name
	DSN      string // postgres connection string
}

// Open creates the engine named by cfg.Driver and opens its connection
// Preconditions: Receives a Config with the fields required by the chosen driver
// Postconditions: Returns an open store with the participants schema in place, or an error if it occurs
func Open(ctx context.Context, cfg Config) (Interface, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case DriverMongo:
		return OpenMongo(ctx, cfg.URI, cfg.Database)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// newReconnectLimiter allows a short burst of reopen attempts, then one every two seconds
func newReconnectLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(2*time.Second), 3)
}

func checkPageArgs(limit int, offset int) error {
	if limit <= 0 {
		return fmt.Errorf("page limit must be greater than zero, got %d", limit)
	}
	if offset < 0 {
		return fmt.Errorf("page offset must not be negative, got %d", offset)
	}
	return nil
}
