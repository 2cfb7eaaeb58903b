package database

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/ds124wfegd/icongen/internal/pkg/storage"
)

func NewFrameRepository(storage storage.FileStorage, frames []entity.Frame) FrameRepository {
	list := make([]entity.Frame, len(frames))
	for i, f := range frames {
		f.Index = i
		if f.Label == "" {
			f.Label = f.Value
		}
		list[i] = f
	}
	return &fileFrameRepository{
		storage: storage,
		frames:  list,
		cache:   make(map[string]image.Image),
	}
}

func (r *fileFrameRepository) List() []entity.Frame {
	return append([]entity.Frame(nil), r.frames...)
}

func (r *fileFrameRepository) Sources() []icongen.FrameSource {
	sources := make([]icongen.FrameSource, 0, len(r.frames))
	for _, f := range r.frames {
		sources = append(sources, icongen.FrameSource{Label: f.Label, Value: f.Value})
	}
	return sources
}

// LoadFrame decodes the frame at path once and serves later calls from memory.
func (r *fileFrameRepository) LoadFrame(path string) (image.Image, error) {
	r.mu.RLock()
	img, ok := r.cache[path]
	r.mu.RUnlock()
	if ok {
		return img, nil
	}

	reader, err := r.storage.Get(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	img, err = imaging.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}

	r.mu.Lock()
	r.cache[path] = img
	r.mu.Unlock()
	return img, nil
}
