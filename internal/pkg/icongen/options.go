package icongen

import (
	"image"

	"github.com/creasty/defaults"
	"github.com/disintegration/imaging"

	"github.com/ds124wfegd/icongen/internal/pkg/scaler"
)

// Options configures a Generator. Zero-valued fields are filled from the
// defaults below, so callers only set what they want to override.
type Options struct {
	Suffix   string `default:"_ig"`
	DrawSize int    `default:"100"`
	MIMEType string `default:"image/png"`

	// Frames are loaded eagerly by New; the first one becomes current.
	Frames      []FrameSource
	FrameLoader FrameLoader

	Scaler   scaler.Scaler
	Listener Listener
}

// SetDefaults is invoked by defaults.Set once the tagged fields are filled.
func (o *Options) SetDefaults() {
	if o.Scaler == nil {
		o.Scaler = scaler.NewImagingScaler()
	}
	if o.Listener == nil {
		o.Listener = NopListener{}
	}
	if o.FrameLoader == nil {
		o.FrameLoader = FrameLoaderFunc(func(path string) (image.Image, error) {
			return imaging.Open(path)
		})
	}
}

func mergeOptions(opts Options) (Options, error) {
	if opts.Frames != nil {
		opts.Frames = append([]FrameSource(nil), opts.Frames...)
	}
	if err := defaults.Set(&opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// FrameSource locates one frame image. Label is only informative.
type FrameSource struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FramePaths turns plain paths into frame sources labelled by their path.
func FramePaths(paths ...string) []FrameSource {
	out := make([]FrameSource, 0, len(paths))
	for _, p := range paths {
		out = append(out, FrameSource{Label: p, Value: p})
	}
	return out
}

type FrameLoader interface {
	LoadFrame(path string) (image.Image, error)
}

type FrameLoaderFunc func(path string) (image.Image, error)

func (f FrameLoaderFunc) LoadFrame(path string) (image.Image, error) {
	return f(path)
}
