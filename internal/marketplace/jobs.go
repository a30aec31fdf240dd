package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
)

type CreateJobRequest struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Budget         *decimal.Decimal `json:"budget"`
	Location       string           `json:"location"`
	Requirements   string           `json:"requirements"`
	DeliveryFormat string           `json:"delivery_format"`
	Timeline       string           `json:"timeline"`
}

// UpdateJobRequest is a partial update; nil fields keep their current value.
type UpdateJobRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Budget         *decimal.Decimal `json:"budget"`
	Location       *string          `json:"location"`
	Requirements   *string          `json:"requirements"`
	DeliveryFormat *string          `json:"delivery_format"`
	Timeline       *string          `json:"timeline"`
	Status         *string          `json:"status"`
}

func (r *CreateJobRequest) input() (models.JobInput, error) {
	var in models.JobInput
	var err error
	fields := []struct {
		name string
		src  string
		dst  *string
	}{
		{"title", r.Title, &in.Title},
		{"description", r.Description, &in.Description},
		{"location", r.Location, &in.Location},
		{"requirements", r.Requirements, &in.Requirements},
		{"delivery_format", r.DeliveryFormat, &in.DeliveryFormat},
		{"timeline", r.Timeline, &in.Timeline},
	}
	for _, f := range fields {
		if *f.dst, err = required(f.name, f.src); err != nil {
			return in, err
		}
	}
	if in.Budget, err = models.Money("budget", r.Budget); err != nil {
		return in, err
	}
	return in, nil
}

// GET /api/jobs
func (h *Handler) ListJobs(c echo.Context) error {
	list, err := h.repos.Jobs.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// GET /api/jobs/:id
func (h *Handler) GetJob(c echo.Context) error {
	j, err := h.repos.Jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, j)
}

// POST /api/jobs
// New jobs always start in discussion.
func (h *Handler) CreateJob(c echo.Context) error {
	req := new(CreateJobRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	j, err := h.repos.Jobs.Create(c.Request().Context(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, j)
}

// PUT /api/jobs/:id
func (h *Handler) UpdateJob(c echo.Context) error {
	req := new(UpdateJobRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	job, err := h.repos.Jobs.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if job.ClientID != userID {
		return apperr.NotFoundOrUnauthorized("Job")
	}
	observed := job.Status

	texts := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"title", req.Title, &job.Title},
		{"description", req.Description, &job.Description},
		{"location", req.Location, &job.Location},
		{"requirements", req.Requirements, &job.Requirements},
		{"delivery_format", req.DeliveryFormat, &job.DeliveryFormat},
		{"timeline", req.Timeline, &job.Timeline},
	}
	for _, f := range texts {
		if f.src == nil {
			continue
		}
		if *f.dst, err = required(f.name, *f.src); err != nil {
			return err
		}
	}
	if req.Budget != nil {
		if job.Budget, err = models.Money("budget", req.Budget); err != nil {
			return err
		}
	}
	if req.Status != nil {
		next, err := models.ParseJobStatus(*req.Status)
		if err != nil {
			return apperr.Validation("status must be one of: discussion quoted accepted in_progress review completed cancelled")
		}
		if !observed.CanTransitionTo(next) {
			return apperr.New(apperr.CodeInvalidTransition,
				"Cannot move job from "+string(observed)+" to "+string(next))
		}
		job.Status = next
	}

	updated, err := h.repos.Jobs.Update(ctx, job, observed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// DELETE /api/jobs/:id
func (h *Handler) DeleteJob(c echo.Context) error {
	if err := h.repos.Jobs.Delete(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Job deleted successfully"})
}

// participantJob loads a job the caller takes part in, hiding it otherwise.
func (h *Handler) participantJob(c echo.Context) (*models.Job, error) {
	job, err := h.repos.Jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !job.IsParticipant(middleware.UserID(c)) {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	return job, nil
}
