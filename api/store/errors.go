/* errors.go
 * Contains the errors returned by every store engine. Engine specific errors never leave this package unwrapped
 */

package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no participant row exists for a user id
var ErrNotFound = errors.New("participant not found")

// ErrReconnectThrottled is the cause of a StorageError when the connection is down and too many
// reopen attempts were made recently
var ErrReconnectThrottled = errors.New("reconnect attempts throttled")

// StorageError wraps every failure that comes from the underlying database
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError for op, or returns nil
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err carries a StorageError anywhere in its chain
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
