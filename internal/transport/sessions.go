package transport

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go-skin-inspector/internal/capture"
	"go-skin-inspector/internal/device"
	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/pkg/models"

	"github.com/gin-gonic/gin"
)

type cameraOp func(ctx context.Context, cam *capture.CameraSession) error

func activate(ctx context.Context, cam *capture.CameraSession) error {
	return cam.Activate(ctx)
}

func deactivate(_ context.Context, cam *capture.CameraSession) error {
	return cam.Deactivate()
}

func switchDevice(ctx context.Context, cam *capture.CameraSession) error {
	return cam.SwitchDevice(ctx)
}

func captureStill(_ context.Context, cam *capture.CameraSession) error {
	return cam.Capture()
}

func (h *handler) createSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request format", err))
		return
	}
	facing, err := device.ParseFacing(req.Facing)
	if err != nil {
		fail(c, apperrors.NewValidationError(err.Error(), err))
		return
	}

	kind := capture.Kind(req.Kind)
	created, err := h.registry.Create(kind, facing)
	if err != nil {
		fail(c, err)
		return
	}

	if req.Activate && kind == capture.KindCamera {
		cam, err := h.registry.Camera(created.ID)
		if err != nil {
			fail(c, err)
			return
		}
		ctx, cancel := h.requestContext(c)
		defer cancel()
		// the caller never learns the id, so the session goes too
		if err := cam.Activate(ctx); err != nil {
			_ = h.registry.Close(created.ID)
			fail(c, err)
			return
		}
		if created, err = h.registry.Describe(created.ID); err != nil {
			fail(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, created)
}

func (h *handler) getSession(c *gin.Context) {
	h.respondSession(c, c.Param("id"))
}

func (h *handler) closeSession(c *gin.Context) {
	if err := h.registry.Close(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) respondSession(c *gin.Context, id string) {
	resp, err := h.registry.Describe(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) cameraAction(op cameraOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		release, err := h.registry.Hold(id)
		if err != nil {
			fail(c, err)
			return
		}
		defer release()
		cam, err := h.registry.Camera(id)
		if err != nil {
			fail(c, err)
			return
		}
		ctx, cancel := h.requestContext(c)
		defer cancel()
		if err := op(ctx, cam); err != nil {
			fail(c, err)
			return
		}
		h.respondSession(c, id)
	}
}

func (h *handler) acceptImage(c *gin.Context) {
	id := c.Param("id")
	s, err := h.registry.Session(id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.Accept(); err != nil {
		fail(c, err)
		return
	}
	h.respondSession(c, id)
}

func (h *handler) retake(c *gin.Context) {
	id := c.Param("id")
	release, err := h.registry.Hold(id)
	if err != nil {
		fail(c, err)
		return
	}
	defer release()
	s, err := h.registry.Session(id)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	if err := s.Retake(ctx); err != nil {
		fail(c, err)
		return
	}
	h.respondSession(c, id)
}

func (h *handler) selectFile(c *gin.Context) {
	id := c.Param("id")
	release, err := h.registry.Hold(id)
	if err != nil {
		fail(c, err)
		return
	}
	defer release()
	up, err := h.registry.Upload(id)
	if err != nil {
		fail(c, err)
		return
	}
	fh, err := h.fileFromRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	if err := up.SelectFile(ctx, fh); err != nil {
		fail(c, err)
		return
	}
	h.respondSession(c, id)
}

func (h *handler) pendingImage(c *gin.Context) {
	s, err := h.registry.Session(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	img, ok := s.PendingImage()
	if !ok {
		fail(c, apperrors.NewInvalidStateError("no image under review", nil))
		return
	}
	writeImage(c, img)
}

func (h *handler) previewFrame(c *gin.Context) {
	cam, err := h.registry.Camera(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	img, err := cam.Preview()
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	writeImage(c, img)
}

func writeImage(c *gin.Context, img media.EncodedImage) {
	mime := img.MIMEType
	if mime == "" {
		mime = media.MIMETypeJPEG
	}
	c.Data(http.StatusOK, mime, img.Data)
}

// fileFromRequest reads the selected image from a multipart "file" field or
// from a JSON body naming a url or carrying a data URL.
func (h *handler) fileFromRequest(c *gin.Context) (capture.FileHandle, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, apperrors.NewValidationError(`multipart field "file" is required`, err)
		}
		return multipartFile{header: header}, nil
	}

	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid request format", err)
	}
	switch {
	case req.URL != "" && req.DataURL != "":
		return nil, apperrors.NewValidationError("provide either url or data_url, not both", nil)
	case req.DataURL != "":
		data, _, err := media.ParseDataURL(req.DataURL)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid data URL", err)
		}
		return capture.BytesFile{Filename: "inline", Data: data}, nil
	case req.URL != "":
		if h.resolver == nil {
			return nil, apperrors.NewValidationError("remote images are not enabled", nil)
		}
		handle, err := h.resolver.Resolve(req.URL)
		if err != nil {
			return nil, err
		}
		return handle, nil
	default:
		return nil, apperrors.NewValidationError("url or data_url is required", nil)
	}
}

type multipartFile struct {
	header *multipart.FileHeader
}

func (f multipartFile) Name() string { return f.header.Filename }

func (f multipartFile) Open(context.Context) (io.ReadCloser, error) {
	return f.header.Open()
}
