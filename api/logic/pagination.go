/* pagination.go
 * Contains the pagination engine used by the participant listing. It is pure: everything a page needs is
 * derived from the total count and the requested page number
 */

package logic

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the number of participants shown per listing page
const DefaultPageSize = 3

// ErrPageOutOfRange is matched by every *PageOutOfRangeError and by malformed control ids
var ErrPageOutOfRange = errors.New("page out of range")

// PageOutOfRangeError is returned when the requested page does not exist
type PageOutOfRangeError struct {
	Requested  int
	TotalPages int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range, total pages: %d", e.Requested, e.TotalPages)
}

func (e *PageOutOfRangeError) Is(target error) bool {
	return target == ErrPageOutOfRange
}

// Page describes one valid listing page and the navigation controls it renders
type Page struct {
	Number     int
	TotalPages int
	PageSize   int
	Offset     int
	Previous   *Control // nil on the first page
	Next       *Control // nil on the last page
}

// Limit is the slice length to request from the store
func (p Page) Limit() int {
	return p.PageSize
}

// TotalPages returns ceil(totalCount / pageSize), which is 0 for an empty listing
func TotalPages(totalCount int, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Paginate computes the bounds and controls of requestedPage.
// Preconditions: Receives the total number of records, the page requested by the user and a page size of at least 1
// Postconditions: Returns the Page, or a *PageOutOfRangeError if requestedPage is not in [1, totalPages]
func Paginate(totalCount int, requestedPage int, pageSize int) (Page, error) {
	if pageSize < 1 {
		return Page{}, fmt.Errorf("page size must be at least 1, got %d", pageSize)
	}
	totalPages := TotalPages(totalCount, pageSize)
	if requestedPage < 1 || requestedPage > totalPages {
		return Page{}, &PageOutOfRangeError{Requested: requestedPage, TotalPages: totalPages}
	}

	page := Page{
		Number:     requestedPage,
		TotalPages: totalPages,
		PageSize:   pageSize,
		Offset:     (requestedPage - 1) * pageSize,
	}
	if requestedPage > 1 {
		page.Previous = &Control{Direction: DirectionPrevious, Page: requestedPage - 1}
	}
	if requestedPage < totalPages {
		page.Next = &Control{Direction: DirectionNext, Page: requestedPage + 1}
	}
	return page, nil
}

// Controls returns the navigation controls of the page in display order
func (p Page) Controls() []Control {
	var controls []Control
	if p.Previous != nil {
		controls = append(controls, *p.Previous)
	}
	if p.Next != nil {
		controls = append(controls, *p.Next)
	}
	return controls
}
