package transport

import (
	"github.com/ds124wfegd/icongen/internal/service"
)

// HealthCheck reports the state of one dependency.
type HealthCheck func() error

type IconHandler struct {
	service        service.IconService
	maxUploadBytes int64
	checks         map[string]HealthCheck
}

func NewIconHandler(service service.IconService, maxUploadBytes int64, checks map[string]HealthCheck) *IconHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &IconHandler{service: service, maxUploadBytes: maxUploadBytes, checks: checks}
}
