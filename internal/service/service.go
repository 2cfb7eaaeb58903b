package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/icongen/internal/database"
	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/ds124wfegd/icongen/internal/pkg/scaler"
)

// IconService is the page-wiring layer: one session per open page, each
// session driving its own icongen.Generator.
type IconService interface {
	CreateSession(ctx context.Context) (*entity.Session, error)
	GetSession(id string) (*entity.Session, error)
	DeleteSession(id string) error
	LoadFile(ctx context.Context, id string, file icongen.File) (*entity.Session, error)
	SwitchFrame(id string, index int) (*entity.Session, error)
	SetDrawSize(id string, size int) (*entity.Session, error)
	Render(id string) (*entity.Session, error)
	Exit(id string, confirmed bool) (*entity.Session, error)
	Download(ctx context.Context, token string) (*entity.Output, error)
	Frames() []entity.Frame
	Sizes() []int
	CleanupIdle(ctx context.Context, maxIdle time.Duration) int
}

// EventPublisher ships lifecycle events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.IconEvent) error
}

type Settings struct {
	DrawSize    int
	Sizes       []int
	MaxDrawSize int
	Suffix      string
	MIMEType    string
	Resampler   string
	OutputTTL   time.Duration
}

type iconService struct {
	frames    database.FrameRepository
	outputs   database.OutputRepository
	publisher EventPublisher
	settings  Settings
	scaler    scaler.Scaler
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id        string
	generator *icongen.Generator
	page      *pageListener
	createdAt time.Time
	lastSeen  time.Time
}

func NewIconService(frames database.FrameRepository, outputs database.OutputRepository, publisher EventPublisher, settings Settings) (IconService, error) {
	sc, err := scaler.ByName(settings.Resampler)
	if err != nil {
		return nil, err
	}
	if !icongen.IsSupported(settings.MIMEType) {
		return nil, fmt.Errorf("%w: %s", icongen.ErrUnsupportedMIME, settings.MIMEType)
	}
	if settings.MaxDrawSize <= 0 {
		settings.MaxDrawSize = 2048
	}
	if settings.OutputTTL <= 0 {
		settings.OutputTTL = 10 * time.Minute
	}

	return &iconService{
		frames:    frames,
		outputs:   outputs,
		publisher: publisher,
		settings:  settings,
		scaler:    sc,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}, nil
}
