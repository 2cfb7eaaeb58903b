package database

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/ds124wfegd/icongen/internal/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// FrameRepository lists the configured frames and loads their images. It is
// the icongen.FrameLoader handed to every session's generator.
type FrameRepository interface {
	List() []entity.Frame
	Sources() []icongen.FrameSource
	LoadFrame(path string) (image.Image, error)
}

// OutputRepository keeps encoded icons for a limited time so they can be
// downloaded by token.
type OutputRepository interface {
	Save(ctx context.Context, output *entity.Output, ttl time.Duration) error
	Get(ctx context.Context, token string) (*entity.Output, error)
	Delete(ctx context.Context, token string) error
}

type fileFrameRepository struct {
	storage storage.FileStorage
	frames  []entity.Frame

	mu    sync.RWMutex
	cache map[string]image.Image
}

// MemoryOutputRepository is the single-process OutputRepository.
type MemoryOutputRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	output    entity.Output
	expiresAt time.Time
}

type redisOutputRepository struct {
	client redis.Cmdable
}
