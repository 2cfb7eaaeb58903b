package icongen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder counts lifecycle events.
type recorder struct {
	mu        sync.Mutex
	read      int
	typeErr   int
	decodeErr int
	render    int
	renderErr int
	rendered  []DrawInfo
	exit      int
}

func (r *recorder) OnReadFile(File)      { r.mu.Lock(); r.read++; r.mu.Unlock() }
func (r *recorder) OnFileTypeError(File) { r.mu.Lock(); r.typeErr++; r.mu.Unlock() }
func (r *recorder) OnDecodeError(error)  { r.mu.Lock(); r.decodeErr++; r.mu.Unlock() }
func (r *recorder) OnRender()            { r.mu.Lock(); r.render++; r.mu.Unlock() }
func (r *recorder) OnRenderError(error)  { r.mu.Lock(); r.renderErr++; r.mu.Unlock() }
func (r *recorder) OnExit()              { r.mu.Lock(); r.exit++; r.mu.Unlock() }

func (r *recorder) OnRendered(info DrawInfo) {
	r.mu.Lock()
	r.rendered = append(r.rendered, info)
	r.mu.Unlock()
}

func (r *recorder) renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rendered)
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngFile(t *testing.T, name string, w, h int) File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, color.RGBA{R: 100, G: 150, B: 200, A: 255})))
	return NewFile(name, "image/png", buf.Bytes())
}

func newGenerator(t *testing.T, opts Options) (*Generator, *Canvas, *recorder) {
	t.Helper()
	rec := &recorder{}
	if opts.Listener == nil {
		opts.Listener = rec
	}
	canvas := NewCanvas()
	g, err := New(canvas, opts)
	require.NoError(t, err)
	return g, canvas, rec
}

func TestFitAndCenter(t *testing.T) {
	tests := []struct {
		name          string
		w, h, size    int
		width, height int
		x, y          float64
	}{
		{name: "landscape", w: 200, h: 100, size: 100, width: 100, height: 50, x: 0, y: 25},
		{name: "portrait", w: 300, h: 600, size: 100, width: 50, height: 100, x: 25, y: 0},
		{name: "square scales to size", w: 300, h: 300, size: 100, width: 100, height: 100, x: 0, y: 0},
		{name: "small square scales up", w: 10, h: 10, size: 64, width: 64, height: 64, x: 0, y: 0},
		{name: "fractional offset", w: 3, h: 1, size: 100, width: 100, height: 33, x: 0, y: 33.5},
		{name: "upscale landscape", w: 40, h: 30, size: 200, width: 200, height: 150, x: 0, y: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := FitAndCenter(tt.w, tt.h, tt.size)

			assert.Equal(t, tt.width, info.Width)
			assert.Equal(t, tt.height, info.Height)
			assert.InDelta(t, tt.x, info.X, 1e-9)
			assert.InDelta(t, tt.y, info.Y, 1e-9)
			assert.Equal(t, tt.size, info.Size)

			// centering law
			assert.InDelta(t, float64(tt.size)/2, info.X+float64(info.Width)/2, 1e-9)
			assert.InDelta(t, float64(tt.size)/2, info.Y+float64(info.Height)/2, 1e-9)
		})
	}
}

func TestFitAndCenterPreservesAspectRatio(t *testing.T) {
	for _, dims := range [][2]int{{1920, 1080}, {1080, 1920}, {777, 333}, {101, 99}} {
		info := FitAndCenter(dims[0], dims[1], 128)

		longer := info.Width
		if info.Height > longer {
			longer = info.Height
		}
		assert.Equal(t, 128, longer)
		want := float64(dims[0]) / float64(dims[1])
		got := float64(info.Width) / float64(info.Height)
		assert.InDelta(t, want, got, want*0.02)
	}
}

func TestFitAndCenterDegenerate(t *testing.T) {
	info := FitAndCenter(0, 10, 100)
	assert.Equal(t, DrawInfo{Width: 100, Height: 100, Size: 100}, info)
}

func TestNew(t *testing.T) {
	t.Run("nil canvas", func(t *testing.T) {
		_, err := New(nil, Options{})
		assert.ErrorIs(t, err, ErrNoCanvas)
	})

	t.Run("defaults merged", func(t *testing.T) {
		g, _, _ := newGenerator(t, Options{Suffix: "_x"})
		opts := g.Options()
		assert.Equal(t, "_x", opts.Suffix)
		assert.Equal(t, 100, opts.DrawSize)
		assert.Equal(t, "image/png", opts.MIMEType)
		assert.NotNil(t, opts.Scaler)
		assert.Equal(t, -1, g.FrameIndex())
	})

	t.Run("unsupported mime", func(t *testing.T) {
		_, err := New(NewCanvas(), Options{MIMEType: "image/svg+xml"})
		assert.ErrorIs(t, err, ErrUnsupportedMIME)
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := New(NewCanvas(), Options{DrawSize: -5})
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("frames loaded eagerly", func(t *testing.T) {
		var loaded []string
		g, _, _ := newGenerator(t, Options{
			Frames: FramePaths("a.png", "b.png"),
			FrameLoader: FrameLoaderFunc(func(path string) (image.Image, error) {
				loaded = append(loaded, path)
				return solid(10, 10, color.Black), nil
			}),
		})
		assert.Equal(t, []string{"a.png", "b.png"}, loaded)
		assert.Equal(t, 0, g.FrameIndex())
	})

	t.Run("frame load failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := New(NewCanvas(), Options{
			Frames: FramePaths("missing.png"),
			FrameLoader: FrameLoaderFunc(func(string) (image.Image, error) {
				return nil, boom
			}),
		})
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "missing.png")
	})
}

func TestLoadFileRendersAtDrawSize(t *testing.T) {
	g, canvas, rec := newGenerator(t, Options{DrawSize: 64})

	err := g.LoadFile(context.Background(), pngFile(t, "photo.png", 200, 100)).Wait()
	require.NoError(t, err)

	assert.True(t, g.HasImage())
	assert.Equal(t, 64, canvas.Bounds().Dx())
	assert.Equal(t, 64, canvas.Bounds().Dy())
	assert.Equal(t, 1, rec.read)
	assert.Equal(t, 1, rec.render)
	require.Len(t, rec.rendered, 1)
	assert.Equal(t, 64, rec.rendered[0].Width)
	assert.Equal(t, 32, rec.rendered[0].Height)
	assert.Equal(t, "photo_ig.png", g.FileName())

	// letterbox rows stay transparent, the middle is painted
	assert.Equal(t, uint8(0), canvas.Image().NRGBAAt(32, 2).A)
	assert.Equal(t, uint8(255), canvas.Image().NRGBAAt(32, 32).A)
}

func TestLoadFileRejectsNonImage(t *testing.T) {
	g, _, rec := newGenerator(t, Options{})
	require.NoError(t, g.LoadFile(context.Background(), pngFile(t, "first.png", 10, 10)).Wait())
	rendersBefore := rec.renders()

	for _, f := range []File{
		NewFile("notes.txt", "text/plain", []byte("hello")),
		NewFile("blob", "", nil),
		nil,
	} {
		err := g.LoadFile(context.Background(), f).Wait()
		assert.ErrorIs(t, err, ErrFileType)
	}

	assert.Equal(t, 3, rec.typeErr)
	assert.Equal(t, rendersBefore, rec.renders())
	assert.True(t, g.HasImage())
	assert.Equal(t, "first_ig.png", g.FileName())
}

func TestLoadFileDecodeError(t *testing.T) {
	g, _, rec := newGenerator(t, Options{})

	err := g.LoadFile(context.Background(), NewFile("broken.png", "image/png", []byte("not a png"))).Wait()
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, 1, rec.decodeErr)
	assert.Equal(t, 0, rec.renders())
	assert.False(t, g.HasImage())
	assert.Equal(t, "", g.FileName())
}

func TestLoadFileCancelled(t *testing.T) {
	g, _, rec := newGenerator(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.LoadFile(ctx, pngFile(t, "photo.png", 10, 10)).Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, g.HasImage())
	assert.Equal(t, 0, rec.renders())
}

// gatedFile blocks Open until release is closed.
type gatedFile struct {
	File
	release chan struct{}
}

func (f *gatedFile) Open() (io.ReadCloser, error) {
	<-f.release
	return f.File.Open()
}

func TestLoadFileLatestWins(t *testing.T) {
	g, canvas, rec := newGenerator(t, Options{})

	slow := &gatedFile{File: pngFile(t, "slow.png", 300, 100), release: make(chan struct{})}
	first := g.LoadFile(context.Background(), slow)
	second := g.LoadFile(context.Background(), pngFile(t, "fast.png", 100, 300))
	assert.Greater(t, second.Generation(), first.Generation())

	require.NoError(t, second.Wait())
	close(slow.release)
	assert.ErrorIs(t, first.Wait(), ErrSuperseded)

	assert.Equal(t, "fast_ig.png", g.FileName())
	require.Equal(t, 1, rec.renders())
	assert.Equal(t, 33, rec.rendered[0].Width)
	assert.Equal(t, 100, canvas.Bounds().Dx())
}

func TestExitSupersedesInFlightLoad(t *testing.T) {
	g, _, rec := newGenerator(t, Options{})

	slow := &gatedFile{File: pngFile(t, "slow.png", 10, 10), release: make(chan struct{})}
	p := g.LoadFile(context.Background(), slow)
	g.Exit()
	close(slow.release)

	assert.ErrorIs(t, p.Wait(), ErrSuperseded)
	assert.False(t, g.HasImage())
	assert.Equal(t, 1, rec.exit)
}

// gatedListener records callback order and holds the first callback named
// hold until release is closed. OnRendered reads the encoded canvas back.
type gatedListener struct {
	NopListener
	g       *Generator
	hold    string
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	order  []string
	sizes  []int
	widths []int
}

func newGatedListener(hold string) *gatedListener {
	return &gatedListener{hold: hold, entered: make(chan struct{}), release: make(chan struct{})}
}

func (l *gatedListener) record(name string) {
	l.mu.Lock()
	l.order = append(l.order, name)
	held := l.hold == name
	if held {
		l.hold = ""
	}
	l.mu.Unlock()

	if held {
		close(l.entered)
		<-l.release
	}
}

func (l *gatedListener) OnRender() { l.record("render") }
func (l *gatedListener) OnExit()   { l.record("exit") }

func (l *gatedListener) OnRendered(info DrawInfo) {
	l.record("rendered")

	data, err := l.g.OutputData()
	if err != nil {
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return
	}
	l.mu.Lock()
	l.sizes = append(l.sizes, info.Size)
	l.widths = append(l.widths, cfg.Width)
	l.mu.Unlock()
}

func (l *gatedListener) events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func closed(ch chan struct{}) func() bool {
	return func() bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
}

func TestExitWaitsForLoadCallbacks(t *testing.T) {
	l := newGatedListener("render")
	g, _, _ := newGenerator(t, Options{Listener: l})
	l.g = g

	p := g.LoadFile(context.Background(), pngFile(t, "a.png", 10, 10))
	<-l.entered

	exited := make(chan struct{})
	go func() {
		g.Exit()
		close(exited)
	}()
	assert.Never(t, closed(exited), 50*time.Millisecond, 5*time.Millisecond)

	close(l.release)
	require.NoError(t, p.Wait())
	<-exited

	assert.Equal(t, []string{"render", "rendered", "exit"}, l.events())
	assert.False(t, g.HasImage())
}

func TestRenderedSeesItsOwnCanvas(t *testing.T) {
	l := newGatedListener("rendered")
	g, _, _ := newGenerator(t, Options{Listener: l, DrawSize: 100})
	l.g = g

	p := g.LoadFile(context.Background(), pngFile(t, "a.png", 10, 10))
	<-l.entered

	resized := make(chan struct{})
	go func() {
		_ = g.SetDrawSize(256)
		_, _ = g.Render()
		close(resized)
	}()
	assert.Never(t, closed(resized), 50*time.Millisecond, 5*time.Millisecond)

	close(l.release)
	require.NoError(t, p.Wait())
	<-resized

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Equal(t, []int{100, 256}, l.sizes)
	assert.Equal(t, l.sizes, l.widths)
}

func TestSwitchFrame(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	frames := map[string]image.Image{"red.png": solid(8, 8, red), "green.png": solid(8, 8, green)}

	g, canvas, rec := newGenerator(t, Options{
		DrawSize: 20,
		Frames:   []FrameSource{{Label: "Red", Value: "red.png"}, {Label: "Green", Value: "green.png"}},
		FrameLoader: FrameLoaderFunc(func(path string) (image.Image, error) {
			return frames[path], nil
		}),
	})

	t.Run("without image no render", func(t *testing.T) {
		require.NoError(t, g.SwitchFrame(1))
		assert.Equal(t, 1, g.FrameIndex())
		assert.Equal(t, 0, rec.render)
	})

	t.Run("out of range", func(t *testing.T) {
		assert.ErrorIs(t, g.SwitchFrame(2), ErrFrameIndex)
		assert.ErrorIs(t, g.SwitchFrame(-1), ErrFrameIndex)
		assert.Equal(t, 1, g.FrameIndex())
	})

	t.Run("with image renders once", func(t *testing.T) {
		require.NoError(t, g.LoadFile(context.Background(), pngFile(t, "p.png", 40, 40)).Wait())
		before := rec.renders()

		require.NoError(t, g.SwitchFrame(0))
		assert.Equal(t, before+1, rec.renders())

		px := canvas.Image().NRGBAAt(10, 10)
		assert.Equal(t, color.NRGBA{R: 255, A: 255}, px)
	})
}

func TestRenderWithoutImage(t *testing.T) {
	g, canvas, rec := newGenerator(t, Options{DrawSize: 50})

	_, err := g.Render()
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, 1, rec.render)
	assert.Equal(t, 1, rec.renderErr)
	assert.Equal(t, 0, rec.renders())
	assert.True(t, canvas.Bounds().Empty())
}

func TestExitThenRenderReportsNoImage(t *testing.T) {
	g, canvas, rec := newGenerator(t, Options{})
	require.NoError(t, g.LoadFile(context.Background(), pngFile(t, "p.png", 30, 20)).Wait())

	g.Exit()
	assert.False(t, g.HasImage())
	assert.Equal(t, 1, rec.exit)

	_, err := g.Render()
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, 1, rec.renderErr)
	// exit keeps the last drawing
	assert.Equal(t, 100, canvas.Bounds().Dx())
}

func TestSetDrawSize(t *testing.T) {
	g, canvas, _ := newGenerator(t, Options{})
	require.NoError(t, g.LoadFile(context.Background(), pngFile(t, "p.png", 30, 20)).Wait())

	require.NoError(t, g.SetDrawSize(256))
	assert.Equal(t, 100, canvas.Bounds().Dx(), "takes effect on next render")

	info, err := g.Render()
	require.NoError(t, err)
	assert.Equal(t, 256, info.Size)
	assert.Equal(t, 256, canvas.Bounds().Dx())
	assert.Equal(t, 256, canvas.Bounds().Dy())

	assert.ErrorIs(t, g.SetDrawSize(0), ErrInvalidSize)
	assert.Equal(t, 256, g.DrawSize())
}

func TestEncode(t *testing.T) {
	g, _, _ := newGenerator(t, Options{DrawSize: 48})

	_, err := g.OutputData()
	assert.ErrorIs(t, err, ErrNoImage)

	require.NoError(t, g.LoadFile(context.Background(), pngFile(t, "p.png", 30, 20)).Wait())
	data, err := g.OutputData()
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 48, 48), img.Bounds())
}

func TestEncodeJPEG(t *testing.T) {
	g, _, _ := newGenerator(t, Options{MIMEType: "image/jpeg"})
	require.NoError(t, g.LoadFile(context.Background(), pngFile(t, "p.png", 30, 20)).Wait())

	data, err := g.OutputData()
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestListenerMayCallBack(t *testing.T) {
	var name string
	var data []byte
	var g *Generator

	g, _, _ = newGenerator(t, Options{Listener: ListenerFuncs{
		Rendered: func(DrawInfo) {
			name = g.FileName()
			data, _ = g.OutputData()
		},
	}})

	done := make(chan error, 1)
	go func() { done <- g.LoadFile(context.Background(), pngFile(t, "cat.jpeg.png", 20, 20)).Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener callback deadlocked")
	}
	assert.Equal(t, "cat.jpeg_ig.png", name)
	assert.NotEmpty(t, data)
}

func TestSuffixedName(t *testing.T) {
	tests := []struct {
		name, suffix, want string
	}{
		{"photo.png", "_ig", "photo_ig.png"},
		{"photo", "_ig", "photo"},
		{"archive.tar.gz", "_ig", "archive.tar_ig.gz"},
		{"my photo.JPG", "-icon", "my photo-icon.JPG"},
		{"price.png", "$1", "price$1.png"},
		{"", "_ig", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, suffixedName(tt.name, tt.suffix), tt.name)
	}
}

func TestIsSupported(t *testing.T) {
	for _, mime := range []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff"} {
		assert.True(t, IsSupported(mime), mime)
	}
	assert.False(t, IsSupported("image/webp"))
	assert.False(t, IsSupported("text/html"))
}

func TestListenersFanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	ls := Listeners{a, b, NopListener{}, ListenerFuncs{}}

	ls.OnRender()
	ls.OnRendered(DrawInfo{Size: 1})
	ls.OnExit()

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, 1, r.render)
		assert.Equal(t, 1, r.renders())
		assert.Equal(t, 1, r.exit)
	}
}
