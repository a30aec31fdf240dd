package marketplace

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
)

type DatasetRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Format      string           `json:"format" validate:"max=100"`
	Size        string           `json:"size" validate:"max=100"`
	PreviewURL  string           `json:"preview_url" validate:"omitempty,url"`
}

func (r *DatasetRequest) input() (models.DatasetInput, error) {
	var in models.DatasetInput
	var err error
	if in.Title, err = required("title", r.Title); err != nil {
		return in, err
	}
	if in.Description, err = required("description", r.Description); err != nil {
		return in, err
	}
	if in.Price, err = models.Money("price", r.Price); err != nil {
		return in, err
	}
	in.Format = strings.TrimSpace(r.Format)
	in.Size = strings.TrimSpace(r.Size)
	in.PreviewURL = strings.TrimSpace(r.PreviewURL)
	return in, nil
}

// GET /api/datasets
func (h *Handler) ListDatasets(c echo.Context) error {
	list, err := h.repos.Datasets.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// GET /api/datasets/:id
func (h *Handler) GetDataset(c echo.Context) error {
	d, err := h.repos.Datasets.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// POST /api/datasets
// The owner always comes from the session.
func (h *Handler) CreateDataset(c echo.Context) error {
	req := new(DatasetRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	d, err := h.repos.Datasets.Create(c.Request().Context(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

// PUT /api/datasets/:id
func (h *Handler) UpdateDataset(c echo.Context) error {
	req := new(DatasetRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	d, err := h.repos.Datasets.Update(c.Request().Context(), c.Param("id"), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// DELETE /api/datasets/:id
func (h *Handler) DeleteDataset(c echo.Context) error {
	if err := h.repos.Datasets.Delete(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Dataset deleted successfully"})
}
