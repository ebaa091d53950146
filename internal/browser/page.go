// Package browser defines the page-automation primitives the orchestrator
// drives and the portal selectors it targets. Implementations live elsewhere
// (internal/driver provides one over the browser-driver service); tests use
// fakes.
package browser

import (
	"context"
	"time"
)

// Page is the set of low-level operations against the live browser session.
// Every call is a remote interaction and honors context cancellation and
// deadlines. Implementations are not required to be safe for concurrent use;
// the orchestrator is the page's single owner for the duration of a run.
type Page interface {
	// Navigate loads the given URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// Fill sets an input's value directly.
	Fill(ctx context.Context, selector, value string) error

	// Type fills an input one keystroke at a time with the given delay
	// between keys, mimicking human typing.
	Type(ctx context.Context, selector, text string, keyDelay time.Duration) error

	// SelectOption selects an option of a <select> element by value.
	SelectOption(ctx context.Context, selector, value string) error

	// Text returns the inner text of the first matching element.
	Text(ctx context.Context, selector string) (string, error)

	// Value returns the current value of the first matching form field.
	Value(ctx context.Context, selector string) (string, error)

	// Count returns how many elements match selector.
	Count(ctx context.Context, selector string) (int, error)

	// Visible reports whether the first matching element is visible.
	Visible(ctx context.Context, selector string) (bool, error)

	// PressAndHold performs a press-and-hold gesture on the element for the
	// given duration.
	PressAndHold(ctx context.Context, selector string, hold time.Duration) error

	// WaitVisible blocks until the element is visible or the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// Screenshot captures the first matching element as a PNG. An empty
	// selector captures the viewport.
	Screenshot(ctx context.Context, selector string) ([]byte, error)
}
