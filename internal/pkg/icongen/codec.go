package icongen

import (
	"errors"
	"fmt"
	"image"
	"io"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"

	// imaging registers png, jpeg, gif, bmp and tiff; webp is decode-only.
	_ "golang.org/x/image/webp"
)

var imagePattern = regexp.MustCompile(`image/\w+`)

var encoders = map[string]imaging.Format{
	"image/png":  imaging.PNG,
	"image/jpeg": imaging.JPEG,
	"image/gif":  imaging.GIF,
	"image/bmp":  imaging.BMP,
	"image/tiff": imaging.TIFF,
}

// jpegQuality matches the browser canvas default of 0.92.
const jpegQuality = 92

// IsSupported reports whether icons can be produced in mimeType at all. The
// HTTP layer checks it once at startup before exposing any icon route.
func IsSupported(mimeType string) bool {
	_, ok := encoders[mimeType]
	return ok && decodersRegistered()
}

// IsImageType reports whether a declared MIME type looks like an image.
func IsImageType(mimeType string) bool {
	return imagePattern.MatchString(mimeType)
}

func decodersRegistered() bool {
	// image.Decode fails with ErrFormat only when no decoder claims the header.
	_, _, err := image.DecodeConfig(strings.NewReader(pngSignature))
	return !errors.Is(err, image.ErrFormat)
}

const pngSignature = "\x89PNG\r\n\x1a\n"

func decodeFile(f File) (image.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func encode(w io.Writer, img image.Image, mimeType string) error {
	format, ok := encoders[mimeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedMIME, mimeType)
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(jpegQuality))
}
