package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *iconService) CreateSession(ctx context.Context) (*entity.Session, error) {
	id := uuid.New().String()
	page := newPageListener(id, s.outputs, s.settings.OutputTTL)

	listeners := icongen.Listeners{page}
	var events *eventListener
	if s.publisher != nil {
		events = &eventListener{sessionID: id, publisher: s.publisher, now: s.now}
		listeners = append(listeners, events)
	}

	generator, err := icongen.New(icongen.NewCanvas(), icongen.Options{
		Suffix:      s.settings.Suffix,
		DrawSize:    s.settings.DrawSize,
		MIMEType:    s.settings.MIMEType,
		Frames:      s.frames.Sources(),
		FrameLoader: s.frames,
		Scaler:      s.scaler,
		Listener:    listeners,
	})
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	page.generator = generator
	if events != nil {
		events.generator = generator
	}

	now := s.now()
	sess := &session{id: id, generator: generator, page: page, createdAt: now, lastSeen: now}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	logrus.WithField("session_id", id).Info("session created")
	return s.snapshot(sess), nil
}

func (s *iconService) GetSession(id string) (*entity.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

func (s *iconService) DeleteSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return entity.ErrSessionNotFound
	}
	s.close(sess)
	return nil
}

// LoadFile hands file to the session's generator and waits for the decode.
func (s *iconService) LoadFile(ctx context.Context, id string, file icongen.File) (*entity.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	err = sess.generator.LoadFile(ctx, file).WaitContext(ctx)
	return s.snapshot(sess), err
}

func (s *iconService) SwitchFrame(id string, index int) (*entity.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	err = sess.generator.SwitchFrame(index)
	return s.snapshot(sess), err
}

// SetDrawSize stores the size and redraws right away. Without an image there
// is nothing to redraw and the size simply waits for the next upload.
func (s *iconService) SetDrawSize(id string, size int) (*entity.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	if size <= 0 || size > s.settings.MaxDrawSize {
		return s.snapshot(sess), fmt.Errorf("%w: %d (allowed 1..%d)", entity.ErrInvalidSize, size, s.settings.MaxDrawSize)
	}

	if err := sess.generator.SetDrawSize(size); err != nil {
		return s.snapshot(sess), err
	}
	if !sess.generator.HasImage() {
		return s.snapshot(sess), nil
	}
	_, err = sess.generator.Render()
	return s.snapshot(sess), err
}

func (s *iconService) Render(id string) (*entity.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	_, err = sess.generator.Render()
	return s.snapshot(sess), err
}

// Exit returns the page to the upload panel. The client must confirm first.
func (s *iconService) Exit(id string, confirmed bool) (*entity.Session, error) {
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return s.snapshot(sess), entity.ErrNotConfirmed
	}

	sess.generator.Exit()
	return s.snapshot(sess), nil
}

func (s *iconService) Download(ctx context.Context, token string) (*entity.Output, error) {
	return s.outputs.Get(ctx, token)
}

func (s *iconService) Frames() []entity.Frame {
	return s.frames.List()
}

func (s *iconService) Sizes() []int {
	return append([]int(nil), s.settings.Sizes...)
}

// CleanupIdle closes every session not used for maxIdle and reports how many
// were closed. A session leaves the map only when it is closed, so sessions
// skipped because ctx ended stay for the next run.
func (s *iconService) CleanupIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var ids []string
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	closed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		s.mu.Lock()
		sess, ok := s.sessions[id]
		if ok && sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		} else {
			ok = false
		}
		s.mu.Unlock()

		if ok {
			s.close(sess)
			closed++
		}
	}

	if p, ok := s.outputs.(interface{ Purge() int }); ok {
		if n := p.Purge(); n > 0 {
			logrus.Debugf("purged %d expired downloads", n)
		}
	}
	return closed
}

func (s *iconService) close(sess *session) {
	sess.generator.Exit()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess.page.release(ctx)

	logrus.WithField("session_id", sess.id).Info("session closed")
}

func (s *iconService) touch(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *iconService) snapshot(sess *session) *entity.Session {
	s.mu.Lock()
	createdAt, lastSeen := sess.createdAt, sess.lastSeen
	s.mu.Unlock()

	return &entity.Session{
		ID:         sess.id,
		DrawSize:   sess.generator.DrawSize(),
		FrameIndex: sess.generator.FrameIndex(),
		HasImage:   sess.generator.HasImage(),
		State:      sess.page.State(),
		CreatedAt:  createdAt,
		LastSeen:   lastSeen,
	}
}
