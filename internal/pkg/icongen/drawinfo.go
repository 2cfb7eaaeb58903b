package icongen

import "math"

// DrawInfo is the placement of the source image on a Size x Size canvas.
type DrawInfo struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
	Size   int     `json:"size"`
}

// FitAndCenter scales a w x h image so its longer side equals size and
// centers it. Square images scale to exactly size x size. Offsets are not
// clamped and may be fractional.
func FitAndCenter(w, h, size int) DrawInfo {
	info := DrawInfo{Width: size, Height: size, Size: size}
	if w <= 0 || h <= 0 {
		return info
	}

	longer := w
	if h > longer {
		longer = h
	}
	info.Scale = float64(size) / float64(longer)
	info.Width = int(math.Round(float64(w) * info.Scale))
	info.Height = int(math.Round(float64(h) * info.Scale))

	info.X = float64(size-info.Width) / 2
	info.Y = float64(size-info.Height) / 2
	return info
}
