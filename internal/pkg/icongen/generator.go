// Package icongen fits an uploaded image onto a square canvas, overlays an
// optional decorative frame and encodes the result for download.
package icongen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
)

type Generator struct {
	// emit is held by every operation from its state change until its last
	// callback returned, so callback batches never interleave.
	emit sync.Mutex

	mu     sync.Mutex
	canvas *Canvas
	opts   Options

	frames []image.Image
	frame  int // index into frames, -1 when none

	image    image.Image
	fileName string
	gen      uint64
	rendered bool
}

// New builds a Generator painting on canvas. Frames listed in opts are loaded
// right away and the first one is selected.
func New(canvas *Canvas, opts Options) (*Generator, error) {
	if canvas == nil {
		return nil, ErrNoCanvas
	}

	merged, err := mergeOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("merge options: %w", err)
	}
	if merged.DrawSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, merged.DrawSize)
	}
	if _, ok := encoders[merged.MIMEType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMIME, merged.MIMEType)
	}

	g := &Generator{canvas: canvas, opts: merged, frame: -1}
	for _, src := range merged.Frames {
		img, err := merged.FrameLoader.LoadFrame(src.Value)
		if err != nil {
			return nil, fmt.Errorf("load frame %q: %w", src.Value, err)
		}
		g.frames = append(g.frames, img)
	}
	if len(g.frames) > 0 {
		g.frame = 0
	}
	return g, nil
}

// SetDrawSize changes the output size used by the next render.
func (g *Generator) SetDrawSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	g.mu.Lock()
	g.opts.DrawSize = size
	g.mu.Unlock()
	return nil
}

func (g *Generator) DrawSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opts.DrawSize
}

// Options returns a copy of the merged configuration.
func (g *Generator) Options() Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	opts := g.opts
	opts.Frames = append([]FrameSource(nil), g.opts.Frames...)
	return opts
}

func (g *Generator) FrameIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frame
}

func (g *Generator) HasImage() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.image != nil
}

// LoadFile validates the declared type of f and decodes it in the
// background. Only the most recent load is applied: when a newer LoadFile or
// Exit happens first, the older one completes with ErrSuperseded.
func (g *Generator) LoadFile(ctx context.Context, f File) *Pending {
	g.emit.Lock()
	defer g.emit.Unlock()

	l := g.opts.Listener
	l.OnReadFile(f)

	if f == nil || !IsImageType(f.Type()) {
		l.OnFileTypeError(f)
		p := newPending(0)
		p.complete(ErrFileType)
		return p
	}

	g.mu.Lock()
	g.gen++
	p := newPending(g.gen)
	g.mu.Unlock()

	go g.decode(ctx, f, p)
	return p
}

func (g *Generator) decode(ctx context.Context, f File, p *Pending) {
	var img image.Image
	err := ctx.Err()
	if err == nil {
		img, err = decodeFile(f)
		if err != nil {
			err = fmt.Errorf("%w: %s: %v", ErrDecode, f.Name(), err)
		}
	}

	g.emit.Lock()
	defer g.emit.Unlock()

	var ev events
	g.mu.Lock()
	switch {
	case p.gen != g.gen:
		err = ErrSuperseded
	case ctx.Err() != nil:
		err = ctx.Err()
	case err != nil:
		decodeErr := err
		ev.add(func() { g.opts.Listener.OnDecodeError(decodeErr) })
	default:
		g.image = img
		g.fileName = f.Name()
		_, err = g.render(&ev)
	}
	g.mu.Unlock()

	ev.flush()
	p.complete(err)
}

// SwitchFrame selects frames[index] and re-renders when an image is held.
func (g *Generator) SwitchFrame(index int) error {
	g.emit.Lock()
	defer g.emit.Unlock()

	var ev events
	g.mu.Lock()
	if index < 0 || index >= len(g.frames) {
		n := len(g.frames)
		g.mu.Unlock()
		return fmt.Errorf("%w: %d (have %d)", ErrFrameIndex, index, n)
	}
	g.frame = index

	var err error
	if g.image != nil {
		_, err = g.render(&ev)
	}
	g.mu.Unlock()

	ev.flush()
	return err
}

// Render paints the held image and the current frame onto the canvas. With
// no image it reports ErrNoImage and leaves the canvas untouched.
func (g *Generator) Render() (DrawInfo, error) {
	g.emit.Lock()
	defer g.emit.Unlock()

	var ev events
	g.mu.Lock()
	info, err := g.render(&ev)
	g.mu.Unlock()

	ev.flush()
	return info, err
}

func (g *Generator) render(ev *events) (DrawInfo, error) {
	l := g.opts.Listener
	ev.add(l.OnRender)

	if g.image == nil {
		ev.add(func() { l.OnRenderError(ErrNoImage) })
		return DrawInfo{}, ErrNoImage
	}

	size := g.opts.DrawSize
	b := g.image.Bounds()
	info := FitAndCenter(b.Dx(), b.Dy(), size)

	g.canvas.Resize(size, size)
	scaled := g.opts.Scaler.Scale(g.image, info.Width, info.Height)
	g.canvas.paint(scaled, image.Pt(int(math.Floor(info.X)), int(math.Floor(info.Y))))

	if g.frame >= 0 {
		g.canvas.paint(g.opts.Scaler.Scale(g.frames[g.frame], size, size), image.Point{})
	}
	g.rendered = true

	ev.add(func() { l.OnRendered(info) })
	return info, nil
}

// Encode writes the canvas in the configured MIME type.
func (g *Generator) Encode(w io.Writer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.rendered {
		return ErrNoImage
	}
	return encode(w, g.canvas.Image(), g.opts.MIMEType)
}

func (g *Generator) OutputData() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is the loaded file's name with the suffix inserted before its
// extension, e.g. "photo.png" becomes "photo_ig.png".
func (g *Generator) FileName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return suffixedName(g.fileName, g.opts.Suffix)
}

// Exit drops the held image and cancels the effect of in-flight loads. The
// canvas and the frame selection are kept.
func (g *Generator) Exit() {
	g.emit.Lock()
	defer g.emit.Unlock()

	g.mu.Lock()
	g.image = nil
	g.gen++
	g.mu.Unlock()

	g.opts.Listener.OnExit()
}

// Pending tracks one LoadFile call.
type Pending struct {
	gen  uint64
	done chan struct{}
	err  error
}

func newPending(gen uint64) *Pending {
	return &Pending{gen: gen, done: make(chan struct{})}
}

func (p *Pending) complete(err error) {
	p.err = err
	close(p.done)
}

func (p *Pending) Generation() uint64 {
	return p.gen
}

// Wait blocks until the load finished and returns its outcome.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// WaitContext is Wait bounded by ctx.
func (p *Pending) WaitContext(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
