/* store_interface.go
 * Contains the store Interface for dependency injection and testing
 */

package store

import (
	"context"

	"github.com/vlakddp4/publicbot/api/shared"
)

// Interface defines the participant record operations every engine implements.
// This allows for mocking in tests.
type Interface interface {
	// Upsert inserts the participant, or overwrites the registration fields of the existing row
	Upsert(ctx context.Context, participant shared.Participant) error
	// UpdateProfile overwrites the profile fields of an existing row, returning ErrNotFound if there is none
	UpdateProfile(ctx context.Context, userID int64, profile shared.Profile) error
	// Delete removes the row if present. Deleting a missing row is not an error
	Delete(ctx context.Context, userID int64) error
	// Get returns the row for userID, or ErrNotFound
	Get(ctx context.Context, userID int64) (shared.Participant, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	Count(ctx context.Context) (int, error)
	// Page returns at most limit rows starting at offset, ordered by user id
	Page(ctx context.Context, limit int, offset int) ([]shared.Participant, error)
	// Ping verifies the connection, reopening it if needed
	Ping(ctx context.Context) error
	Close() error
}

// Ensure every engine implements Interface
var (
	_ Interface = (*SQLiteStore)(nil)
	_ Interface = (*MongoStore)(nil)
	_ Interface = (*PostgresStore)(nil)
)
