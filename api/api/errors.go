/* errors.go
 * Contains the errors returned by the API on top of the validation, pagination and storage errors it passes through
 */

package api

import "errors"

// ErrNotRegistered is returned when a command needs a registration the user does not have
var ErrNotRegistered = errors.New("user is not registered")

// ErrImageUnavailable is returned when a profile image could not be mirrored
var ErrImageUnavailable = errors.New("profile image unavailable")
