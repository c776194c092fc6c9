// Package device defines the narrow capability contracts the daemon's core
// consumes. Real hardware lives in the rpi subpackage; the fake subpackage
// serves tests and dev-mode runs.
package device

import (
	"image"

	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

// Reader polls for a proximity credential. Poll must not block for longer
// than a fraction of the daemon's poll interval.
type Reader interface {
	// Poll returns the tag currently in range, if any. ok=false means no
	// tag; a non-nil error is a read failure the caller may degrade to
	// absence for that tick.
	Poll() (id types.CardID, ok bool, err error)

	// Close releases the underlying transport.
	Close() error
}

// Display is the small monochrome screen. All calls are synchronous; any
// hold time is the caller's responsibility.
type Display interface {
	ShowText(msg string) error
	ShowBitmap(img image.Image, at image.Point) error
	Clear() error

	// Bounds reports the drawable area at native resolution.
	Bounds() image.Rectangle
}

// Camera captures still frames. CaptureTo expects a unique filename inside
// a pre-existing writable directory.
type Camera interface {
	Start() error
	CaptureTo(path string) error
	Stop() error
}

// DataSource supplies the text encoded into the visual code.
type DataSource interface {
	ReadAll() (string, error)
}
