package messaging

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/repository"
)

type Handler struct {
	repos    *repository.Repositories
	hub      *Hub
	notifier alerts.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewHandler(repos *repository.Repositories, hub *Hub, notifier alerts.Notifier, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{repos: repos, hub: hub, notifier: notifier, metrics: m, log: log.Named("messaging")}
}

// Register mounts the message routes and the realtime endpoint; all require auth.
func (h *Handler) Register(api *echo.Group, requireAuth echo.MiddlewareFunc) {
	g := api.Group("/messages", requireAuth)
	g.GET("/contacts", h.Contacts)
	g.GET("/:userId", h.Conversation)
	g.POST("", h.Send)
	g.PUT("/read/:senderId", h.MarkRead)

	api.GET("/ws", h.hub.ServeWS, requireAuth)
}

type SendRequest struct {
	Content    string  `json:"content"`
	ReceiverID string  `json:"receiverId"`
	JobID      *string `json:"jobId"`
}

// GET /api/messages/contacts
func (h *Handler) Contacts(c echo.Context) error {
	list, err := h.repos.Messages.Contacts(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// GET /api/messages/:userId
func (h *Handler) Conversation(c echo.Context) error {
	list, err := h.repos.Messages.Conversation(c.Request().Context(), middleware.UserID(c), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// POST /api/messages
func (h *Handler) Send(c echo.Context) error {
	req := new(SendRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	receiverID := strings.TrimSpace(req.ReceiverID)
	if content == "" || receiverID == "" {
		return apperr.Validation("Content and receiver are required")
	}
	senderID := middleware.UserID(c)
	if receiverID == senderID {
		return apperr.Validation("Cannot send a message to yourself")
	}
	var jobID *string
	if req.JobID != nil && strings.TrimSpace(*req.JobID) != "" {
		id := strings.TrimSpace(*req.JobID)
		jobID = &id
	}

	ctx := c.Request().Context()
	receiver, err := h.repos.Users.GetByID(ctx, receiverID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return apperr.Validation("Receiver or job does not exist")
		}
		return err
	}
	var job *models.Job
	if jobID != nil {
		job, err = h.repos.Jobs.Get(ctx, *jobID)
		if err != nil {
			if apperr.IsCode(err, apperr.CodeNotFound) {
				return apperr.Validation("Receiver or job does not exist")
			}
			return err
		}
	}

	msg, err := h.repos.Messages.Create(ctx, &models.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
		JobID:      jobID,
	})
	if err != nil {
		return err
	}
	h.metrics.MessagesSent.Inc()

	if job != nil {
		h.notify(ctx, receiver, msg, job)
	}
	h.hub.BroadcastMessage(context.WithoutCancel(ctx), msg)

	return c.JSON(http.StatusCreated, msg)
}

// notify never fails the request; the message is already stored.
func (h *Handler) notify(ctx context.Context, receiver *models.User, msg *models.Message, job *models.Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	to := alerts.Recipient{ID: receiver.ID, Name: receiver.Name, Email: receiver.Email}
	if err := h.notifier.NewMessage(ctx, to, msg.ID, msg.SenderID, job.ID, job.Title); err != nil {
		h.metrics.EmailFailures.WithLabelValues(alerts.TaskMessageNew).Inc()
		h.log.Warn("new message email failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// PUT /api/messages/read/:senderId
func (h *Handler) MarkRead(c echo.Context) error {
	n, err := h.repos.Messages.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("senderId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}
