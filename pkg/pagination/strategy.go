package pagination

import (
	"fmt"
)

// State is the progress of a listing after a page has been received.
type State struct {
	// Page is the 1-based number of the page just received.
	Page int

	// Cursor is the cursor that page was requested with.
	Cursor string

	// Fetched is the raw number of items received so far, duplicates included.
	Fetched int
}

// Strategy decides whether a listing is complete.
type Strategy interface {
	// Done reports whether page was the last one. An error means the
	// listing cannot make progress.
	Done(state State, page *Page) (bool, error)

	// Name identifies the strategy in logs.
	Name() string
}

// CursorStrategy ends a listing on the first page without a next cursor.
type CursorStrategy struct{}

// NewCursorStrategy creates a cursor-terminated strategy.
func NewCursorStrategy() Strategy {
	return CursorStrategy{}
}

// Done implements Strategy.
func (CursorStrategy) Done(state State, page *Page) (bool, error) {
	if page.NextCursor == "" {
		return true, nil
	}
	if state.Page > 1 && page.NextCursor == state.Cursor {
		return false, fmt.Errorf("next cursor %q repeats the current cursor", page.NextCursor)
	}
	return false, nil
}

// Name implements Strategy.
func (CursorStrategy) Name() string {
	return "cursor"
}

// CountStrategy ends a listing once the received item count reaches the
// total reported by the page.
type CountStrategy struct{}

// NewCountStrategy creates a count-terminated strategy.
func NewCountStrategy() Strategy {
	return CountStrategy{}
}

// Done implements Strategy.
func (CountStrategy) Done(state State, page *Page) (bool, error) {
	if state.Fetched >= page.Total {
		return true, nil
	}
	if len(page.OfferIDs) == 0 {
		return false, fmt.Errorf("empty page after %d of %d items", state.Fetched, page.Total)
	}
	return false, nil
}

// Name implements Strategy.
func (CountStrategy) Name() string {
	return "count"
}
