// resampling back-ends used to fit source images and frames onto the canvas
package scaler

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

const (
	Imaging    = "imaging"
	Nfnt       = "nfnt"
	CatmullRom = "catmullrom"
)

// Scaler resamples img to exactly w x h pixels.
type Scaler interface {
	Scale(img image.Image, w, h int) image.Image
}

type imagingScaler struct {
	filter imaging.ResampleFilter
}

func NewImagingScaler() Scaler {
	return &imagingScaler{filter: imaging.Lanczos}
}

func (s *imagingScaler) Scale(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return empty()
	}
	return imaging.Resize(img, w, h, s.filter)
}

type nfntScaler struct {
	interp resize.InterpolationFunction
}

func NewNfntScaler() Scaler {
	return &nfntScaler{interp: resize.Lanczos3}
}

func (s *nfntScaler) Scale(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return empty()
	}
	return resize.Resize(uint(w), uint(h), img, s.interp)
}

type catmullRomScaler struct{}

func NewCatmullRomScaler() Scaler {
	return catmullRomScaler{}
}

func (catmullRomScaler) Scale(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return empty()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

var registry = map[string]func() Scaler{
	Imaging:    NewImagingScaler,
	Nfnt:       NewNfntScaler,
	CatmullRom: NewCatmullRomScaler,
}

// ByName returns the scaler registered under name. Empty name selects Imaging.
func ByName(name string) (Scaler, error) {
	if name == "" {
		name = Imaging
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown resampler %q", name)
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func empty() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 0, 0))
}
