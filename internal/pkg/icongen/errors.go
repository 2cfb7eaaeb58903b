package icongen

import "errors"

var (
	ErrNoCanvas        = errors.New("icongen: no canvas")
	ErrInvalidSize     = errors.New("icongen: draw size must be positive")
	ErrUnsupportedMIME = errors.New("icongen: unsupported output mime type")
	ErrFileType        = errors.New("icongen: file is not an image")
	ErrDecode          = errors.New("icongen: cannot decode image")
	ErrSuperseded      = errors.New("icongen: load superseded by a newer request")
	ErrFrameIndex      = errors.New("icongen: frame index out of range")
	ErrNoImage         = errors.New("icongen: no image loaded")
)
