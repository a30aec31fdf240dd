package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
)

type ProposalRequest struct {
	Price    *decimal.Decimal `json:"price"`
	Timeline string           `json:"timeline"`
	Approach string           `json:"approach"`
}

// POST /api/jobs/:id/proposals
func (h *Handler) SubmitProposal(c echo.Context) error {
	req := new(ProposalRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	price, err := models.Money("price", req.Price)
	if err != nil {
		return err
	}
	timeline, err := required("timeline", req.Timeline)
	if err != nil {
		return err
	}
	approach, err := required("approach", req.Approach)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	job, err := h.repos.Jobs.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if job.ClientID == userID {
		return apperr.New(apperr.CodeForbidden, "You cannot submit a proposal for your own job")
	}

	p, err := h.repos.Proposals.Create(ctx, &models.Proposal{
		JobID:      job.ID,
		ProviderID: userID,
		Price:      price,
		Timeline:   timeline,
		Approach:   approach,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// GET /api/jobs/:id/proposals
// The client sees every proposal, anyone else only their own.
func (h *Handler) ListProposals(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	job, err := h.repos.Jobs.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	providerFilter := userID
	if job.ClientID == userID {
		providerFilter = ""
	}
	list, err := h.repos.Proposals.ListByJob(ctx, job.ID, providerFilter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// POST /api/jobs/:id/proposals/:proposalId/accept
func (h *Handler) AcceptProposal(c echo.Context) error {
	p, err := h.repos.Proposals.Accept(c.Request().Context(), c.Param("id"), c.Param("proposalId"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// POST /api/jobs/:id/proposals/:proposalId/withdraw
func (h *Handler) WithdrawProposal(c echo.Context) error {
	if err := h.repos.Proposals.Withdraw(c.Request().Context(), c.Param("id"), c.Param("proposalId"), middleware.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Proposal withdrawn"})
}
