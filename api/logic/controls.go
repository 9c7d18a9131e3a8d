/* controls.go
 * Contains the encoding of listing navigation controls. A control id carries only the direction and the target
 * page, so a button on any old message can be served without server side state
 */

package logic

import (
	"fmt"
	"strconv"
	"strings"
)

// ControlPrefix starts the id of every listing navigation control
const ControlPrefix = "allparticipants_"

// Direction of a navigation control
type Direction string

const (
	DirectionPrevious Direction = "prev"
	DirectionNext     Direction = "next"
)

// Control is a navigation button that opens Page when activated
type Control struct {
	Direction Direction
	Page      int
}

// ID encodes the control as allparticipants_<direction>_<page>
func (c Control) ID() string {
	return fmt.Sprintf("%s%s_%d", ControlPrefix, c.Direction, c.Page)
}

// IsControlID reports whether id belongs to a listing control, well formed or not
func IsControlID(id string) bool {
	return strings.HasPrefix(id, ControlPrefix)
}

// ParseControlID decodes a control id.
// Preconditions: Receives the custom id of an activated component
// Postconditions: Returns the Control, or an error matching ErrPageOutOfRange if the id is malformed
func ParseControlID(id string) (Control, error) {
	rest, ok := strings.CutPrefix(id, ControlPrefix)
	if !ok {
		return Control{}, fmt.Errorf("%w: unknown control id %q", ErrPageOutOfRange, id)
	}
	direction, pageStr, ok := strings.Cut(rest, "_")
	if !ok {
		return Control{}, fmt.Errorf("%w: malformed control id %q", ErrPageOutOfRange, id)
	}

	c := Control{Direction: Direction(direction)}
	if c.Direction != DirectionPrevious && c.Direction != DirectionNext {
		return Control{}, fmt.Errorf("%w: unknown direction in control id %q", ErrPageOutOfRange, id)
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 || strconv.Itoa(page) != pageStr {
		return Control{}, fmt.Errorf("%w: invalid page in control id %q", ErrPageOutOfRange, id)
	}
	c.Page = page
	return c, nil
}
