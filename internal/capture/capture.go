// Package capture provides the frame sources the scanner reads from.
//
// A Provider grants access to a Source. A Source hands out the current frame
// on demand until it ends, either because Stop was called or because the
// underlying stream finished; Done is closed in both cases.
package capture

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrDenied is returned by Acquire when the source cannot be opened,
	// for example because screen recording permission was refused.
	ErrDenied = errors.New("capture permission denied")

	// ErrEnded is returned by Frame once the source has ended.
	ErrEnded = errors.New("capture source ended")
)

// Source yields frames of a live stream.
type Source interface {
	// Frame returns the current frame. It may return an error for a single
	// failed grab while the source stays alive.
	Frame() (image.Image, error)
	// Done is closed when the source ends.
	Done() <-chan struct{}
	// Stop releases the source. It is safe to call more than once.
	Stop()
}

// Provider opens sources.
type Provider interface {
	Acquire(ctx context.Context) (Source, error)
}
