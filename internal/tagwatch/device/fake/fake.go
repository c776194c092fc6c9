// Package fake provides scriptable device implementations for tests and for
// running the daemon without hardware (TAGWATCH_ENV=dev).
package fake

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

// Reading is one scripted poll result.
type Reading struct {
	ID      types.CardID
	Present bool
	Err     error
}

// Reader replays a script of readings, then repeats the last one forever.
// An empty script reads as permanent absence.
type Reader struct {
	mu     sync.Mutex
	script []Reading
	pos    int
	closed bool
}

func NewReader(script ...Reading) *Reader {
	return &Reader{script: script}
}

// Append extends the script while the reader is live.
func (r *Reader) Append(readings ...Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, readings...)
}

func (r *Reader) Poll() (types.CardID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, false, errors.New("fake reader closed")
	}
	if len(r.script) == 0 {
		return 0, false, nil
	}
	cur := r.script[r.pos]
	if r.pos < len(r.script)-1 {
		r.pos++
	}
	return cur.ID, cur.Present, cur.Err
}

func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// DisplayCall records one operation performed against the fake display.
type DisplayCall struct {
	Op   string // "text", "bitmap", "clear"
	Text string
	At   image.Point
}

// Display records every call for later inspection.
type Display struct {
	mu     sync.Mutex
	calls  []DisplayCall
	bounds image.Rectangle

	// FailNext makes the next drawing call return an error, once.
	FailNext bool
}

func NewDisplay(w, h int) *Display {
	return &Display{bounds: image.Rect(0, 0, w, h)}
}

func (d *Display) ShowText(msg string) error {
	return d.record(DisplayCall{Op: "text", Text: msg})
}

func (d *Display) ShowBitmap(_ image.Image, at image.Point) error {
	return d.record(DisplayCall{Op: "bitmap", At: at})
}

func (d *Display) Clear() error {
	return d.record(DisplayCall{Op: "clear"})
}

func (d *Display) Bounds() image.Rectangle { return d.bounds }

func (d *Display) record(c DisplayCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailNext && c.Op != "clear" {
		d.FailNext = false
		return fmt.Errorf("fake display: injected %s failure", c.Op)
	}
	d.calls = append(d.calls, c)
	return nil
}

// Calls returns a copy of everything drawn so far.
func (d *Display) Calls() []DisplayCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DisplayCall, len(d.calls))
	copy(out, d.calls)
	return out
}

// Camera writes a small placeholder file per capture so filename and
// directory handling can be exercised end to end.
type Camera struct {
	mu       sync.Mutex
	started  bool
	captures []string

	// FailCapture makes CaptureTo return an error.
	FailCapture bool
}

func NewCamera() *Camera { return &Camera{} }

func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return nil
}

func (c *Camera) CaptureTo(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return errors.New("fake camera: capture before start")
	}
	if c.FailCapture {
		return errors.New("fake camera: injected capture failure")
	}
	if err := os.WriteFile(path, []byte("fake frame"), 0o644); err != nil {
		return err
	}
	c.captures = append(c.captures, path)
	return nil
}

func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

// Captures returns the paths written so far.
func (c *Camera) Captures() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.captures))
	copy(out, c.captures)
	return out
}

// DataSource returns a fixed string, or an error when Err is set.
type DataSource struct {
	Data string
	Err  error
}

func (s *DataSource) ReadAll() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Data, nil
}
