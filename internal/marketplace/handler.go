package marketplace

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/repository"
	"github.com/sudo-init-do/distal/internal/storage"
)

// Handler serves datasets, jobs, proposals and deliverables.
type Handler struct {
	repos         *repository.Repositories
	files         storage.Store
	maxUploadSize int64
	log           *zap.Logger
}

func NewHandler(repos *repository.Repositories, files storage.Store, maxUploadSize int64, log *zap.Logger) *Handler {
	return &Handler{repos: repos, files: files, maxUploadSize: maxUploadSize, log: log.Named("marketplace")}
}

// Register mounts the marketplace routes under /api.
func (h *Handler) Register(api *echo.Group, requireAuth echo.MiddlewareFunc, uploadLimit echo.MiddlewareFunc) {
	datasets := api.Group("/datasets")
	datasets.GET("", h.ListDatasets)
	datasets.GET("/:id", h.GetDataset)
	datasets.POST("", h.CreateDataset, requireAuth)
	datasets.PUT("/:id", h.UpdateDataset, requireAuth)
	datasets.DELETE("/:id", h.DeleteDataset, requireAuth)

	jobs := api.Group("/jobs")
	jobs.GET("", h.ListJobs)
	jobs.GET("/:id", h.GetJob)
	jobs.POST("", h.CreateJob, requireAuth)
	jobs.PUT("/:id", h.UpdateJob, requireAuth)
	jobs.DELETE("/:id", h.DeleteJob, requireAuth)

	jobs.POST("/:id/proposals", h.SubmitProposal, requireAuth)
	jobs.GET("/:id/proposals", h.ListProposals, requireAuth)
	jobs.POST("/:id/proposals/:proposalId/accept", h.AcceptProposal, requireAuth)
	jobs.POST("/:id/proposals/:proposalId/withdraw", h.WithdrawProposal, requireAuth)

	jobs.POST("/:id/deliverables", h.UploadDeliverable, requireAuth, uploadLimit)
	jobs.GET("/:id/deliverables", h.ListDeliverables, requireAuth)
	jobs.GET("/:id/deliverables/:deliverableId/file", h.DownloadDeliverable, requireAuth)
}

// required trims value and fails when nothing is left.
func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.Validation(field + " is required")
	}
	return v, nil
}
