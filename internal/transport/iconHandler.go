package transport

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// multipartFile exposes an uploaded form file as an icongen.File.
type multipartFile struct {
	header *multipart.FileHeader
}

func (f multipartFile) Name() string { return f.header.Filename }
func (f multipartFile) Type() string { return f.header.Header.Get("Content-Type") }

func (f multipartFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}

func (h *IconHandler) CreateSession(c *gin.Context) {
	sess, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *IconHandler) GetSession(c *gin.Context) {
	sess, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *IconHandler) DeleteSession(c *gin.Context) {
	if err := h.service.DeleteSession(c.Param("id")); err != nil {
		writeError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *IconHandler) UploadFile(c *gin.Context) {
	if h.maxUploadBytes > 0 && c.Request.ContentLength > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	sess, err := h.service.LoadFile(c.Request.Context(), c.Param("id"), multipartFile{header: header})
	if err != nil {
		writeError(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *IconHandler) SwitchFrame(c *gin.Context) {
	var req entity.FrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	sess, err := h.service.SwitchFrame(c.Param("id"), *req.Index)
	if err != nil {
		writeError(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *IconHandler) SetDrawSize(c *gin.Context) {
	var req entity.SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "size must be a positive number"})
		return
	}

	sess, err := h.service.SetDrawSize(c.Param("id"), req.Size)
	if err != nil {
		writeError(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *IconHandler) Render(c *gin.Context) {
	sess, err := h.service.Render(c.Param("id"))
	if err != nil {
		writeError(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *IconHandler) Exit(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	sess, err := h.service.Exit(c.Param("id"), confirmed)
	if err != nil {
		writeError(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *IconHandler) Download(c *gin.Context) {
	output, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	if output.FileName != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": output.FileName}))
	}
	c.Data(http.StatusOK, output.MIMEType, output.Data)
}

func (h *IconHandler) Frames(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Frames())
}

func (h *IconHandler) Sizes(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Sizes())
}

func (h *IconHandler) Health(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      "icongen",
		"dependencies": deps,
	})
}

func writeError(c *gin.Context, err error, sess *entity.Session) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
	}

	body := gin.H{"error": err.Error()}
	if sess != nil {
		body["session"] = sess
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound), errors.Is(err, entity.ErrOutputNotFound):
		return http.StatusNotFound
	case errors.Is(err, icongen.ErrFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, icongen.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, icongen.ErrFrameIndex),
		errors.Is(err, icongen.ErrInvalidSize),
		errors.Is(err, entity.ErrInvalidSize):
		return http.StatusBadRequest
	case errors.Is(err, icongen.ErrNoImage), errors.Is(err, icongen.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
