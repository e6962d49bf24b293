package dom

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/net/html"
)

// ErrNotFound is the expected outcome of probing a path that addresses
// nothing. Enumeration loops use it as their termination signal, so it
// must be matched with errors.Is rather than treated as fatal at the
// call site.
var ErrNotFound = fmt.Errorf("element not found")

// ErrTimedOut reports that AwaitPresence gave up before the element
// appeared. Unlike ErrNotFound it is always fatal to a scraping run.
var ErrTimedOut = fmt.Errorf("timed out waiting for element")

// ElementSource is a capability over a live document tree. The scraper
// owns the source for the duration of one run and must Close it on
// every exit path.
type ElementSource interface {
	// Locate resolves a structural path to an element, returning
	// ErrNotFound when nothing matches.
	Locate(path Path) (*html.Node, error)
	// Text returns the cleaned visible text of an element's subtree.
	Text(n *html.Node) string
	// Trigger activates an element, e.g. opens a disclosure control.
	Trigger(ctx context.Context, path Path) error
	// AwaitPresence blocks until the path resolves or the timeout
	// elapses, in which case it returns ErrTimedOut.
	AwaitPresence(ctx context.Context, path Path, timeout time.Duration) (*html.Node, error)
	Close() error
}
