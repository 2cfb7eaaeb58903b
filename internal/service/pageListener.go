package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/icongen/internal/database"
	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DownloadPath = "/api/v1/downloads/"

	alertFileType = "Please choose an image file."
	alertDecode   = "Could not read this image."
)

// pageListener keeps PageState in step with the generator, the way the
// upload page toggles its panels and refreshes the download link.
type pageListener struct {
	icongen.NopListener

	sessionID string
	generator *icongen.Generator
	outputs   database.OutputRepository
	ttl       time.Duration

	mu    sync.Mutex
	state entity.PageState
	token string
}

func newPageListener(sessionID string, outputs database.OutputRepository, ttl time.Duration) *pageListener {
	return &pageListener{
		sessionID: sessionID,
		outputs:   outputs,
		ttl:       ttl,
		state:     entity.PageState{UploadVisible: true},
	}
}

func (p *pageListener) State() entity.PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *pageListener) OnFileTypeError(icongen.File) {
	p.mu.Lock()
	p.state.Alert = alertFileType
	p.mu.Unlock()
}

func (p *pageListener) OnDecodeError(error) {
	p.mu.Lock()
	p.state.Alert = alertDecode
	p.mu.Unlock()
}

func (p *pageListener) OnRender() {
	p.mu.Lock()
	p.state.ResultVisible = true
	p.state.UploadVisible = false
	p.state.Alert = ""
	p.mu.Unlock()
}

func (p *pageListener) OnRenderError(error) {
	p.mu.Lock()
	p.state.ResultVisible = false
	p.state.UploadVisible = true
	p.mu.Unlock()
}

func (p *pageListener) OnRendered(info icongen.DrawInfo) {
	log := logrus.WithField("session_id", p.sessionID)

	data, err := p.generator.OutputData()
	if err != nil {
		log.Errorf("encode icon: %v", err)
		return
	}

	output := &entity.Output{
		Token:    uuid.New().String(),
		FileName: p.generator.FileName(),
		MIMEType: p.generator.Options().MIMEType,
		Data:     data,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.outputs.Save(ctx, output, p.ttl); err != nil {
		log.Errorf("store icon for download: %v", err)
		return
	}

	p.mu.Lock()
	previous := p.token
	p.token = output.Token
	p.state.RealSize = fmt.Sprintf("%dx%d", info.Size, info.Size)
	p.state.DownloadURL = DownloadPath + output.Token
	p.state.DownloadName = output.FileName
	p.mu.Unlock()

	if previous != "" {
		if err := p.outputs.Delete(ctx, previous); err != nil {
			log.Warnf("drop previous download: %v", err)
		}
	}
}

func (p *pageListener) OnExit() {
	p.mu.Lock()
	p.state.UploadVisible = true
	p.state.ResultVisible = false
	p.mu.Unlock()
}

// release drops the current download when the session goes away.
func (p *pageListener) release(ctx context.Context) {
	p.mu.Lock()
	token := p.token
	p.token = ""
	p.mu.Unlock()

	if token != "" {
		if err := p.outputs.Delete(ctx, token); err != nil {
			logrus.WithField("session_id", p.sessionID).Warnf("drop download: %v", err)
		}
	}
}
