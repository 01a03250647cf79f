// Browser sessions used by the extractor.
// A Session is a scoped handle: open it once per run, pass it explicitly, close it on
// every exit path.

package browser

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNavigation = errors.New("navigation failed")
	ErrNotPresent = errors.New("selector not present")
	ErrClosed     = errors.New("session closed")
)

// Element is a matched node on the current page.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
}

// Session is the small slice of browser automation the crawler needs.
type Session interface {
	// Navigate loads url and returns once the document is parsed.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches at least one element, the timeout
	// elapses (ErrNotPresent) or ctx is done.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Query returns every element matching selector on the current page.
	Query(ctx context.Context, selector string) ([]Element, error)
	Close() error
}

// Snapshotter is implemented by sessions that can save a picture of the current
// page for debugging failed extractions.
type Snapshotter interface {
	Snapshot(name string)
}

// Opener acquires a new session.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}

// boundedTimeout shortens timeout so it never outlives ctx.
func boundedTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout < 0 {
		return 0
	}
	return timeout
}
