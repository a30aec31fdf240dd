package marketplace

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/storage"
)

// POST /api/jobs/:id/deliverables (multipart: file, title, description)
func (h *Handler) UploadDeliverable(c echo.Context) error {
	job, err := h.participantJob(c)
	if err != nil {
		return err
	}
	title, err := required("title", c.FormValue("title"))
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file is required")
	}
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		return apperr.Validation("file is too large")
	}

	src, err := fh.Open()
	if err != nil {
		return apperr.Internal(err, "open upload")
	}
	defer src.Close()

	contentType := fh.Header.Get(echo.HeaderContentType)
	if _, _, perr := mime.ParseMediaType(contentType); contentType == "" || perr != nil {
		contentType = "application/octet-stream"
	}

	d := &models.Deliverable{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		UploaderID:  middleware.UserID(c),
		Title:       title,
		Description: strings.TrimSpace(c.FormValue("description")),
		ContentType: contentType,
		SizeBytes:   fh.Size,
	}
	d.StorageKey = storage.Key(job.ID, d.ID, fh.Filename)
	d.FileName = d.StorageKey[strings.LastIndex(d.StorageKey, "/")+1:]

	ctx := c.Request().Context()
	if err := h.files.Put(ctx, d.StorageKey, src, fh.Size, contentType); err != nil {
		h.log.Error("store deliverable failed", zap.String("job_id", job.ID), zap.String("backend", h.files.Name()), zap.Error(err))
		return apperr.Dependency(err, "Failed to store file")
	}

	saved, err := h.repos.Deliverables.Create(ctx, d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, saved)
}

// GET /api/jobs/:id/deliverables
func (h *Handler) ListDeliverables(c echo.Context) error {
	job, err := h.participantJob(c)
	if err != nil {
		return err
	}
	list, err := h.repos.Deliverables.ListByJob(c.Request().Context(), job.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// GET /api/jobs/:id/deliverables/:deliverableId/file
func (h *Handler) DownloadDeliverable(c echo.Context) error {
	job, err := h.participantJob(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.repos.Deliverables.Get(ctx, job.ID, c.Param("deliverableId"))
	if err != nil {
		return err
	}
	rc, err := h.files.Open(ctx, d.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFoundOrUnauthorized("Deliverable")
		}
		return apperr.Dependency(err, "Failed to read file")
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	return c.Stream(http.StatusOK, d.ContentType, io.Reader(rc))
}
