package icongen

import (
	"bytes"
	"io"
)

// File is an uploaded or dropped image: its name, its declared MIME type and
// a way to read its bytes.
type File interface {
	Name() string
	Type() string
	Open() (io.ReadCloser, error)
}

type memFile struct {
	name     string
	mimeType string
	data     []byte
}

// NewFile wraps in-memory bytes as a File.
func NewFile(name, mimeType string, data []byte) File {
	return &memFile{name: name, mimeType: mimeType, data: data}
}

func (f *memFile) Name() string { return f.name }
func (f *memFile) Type() string { return f.mimeType }

func (f *memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
