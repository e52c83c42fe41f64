package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-relay/internal/api/dto"
	"github.com/spec-kit/support-relay/internal/observability"
	"github.com/spec-kit/support-relay/internal/questions"
	"github.com/spec-kit/support-relay/internal/session"
	"github.com/spec-kit/support-relay/internal/storage"
	"github.com/spec-kit/support-relay/internal/transport"
	"github.com/spec-kit/support-relay/pkg/util"
)

// AdminHandler exposes the operational surface: session and question
// inspection, forced teardown and ban management.
type AdminHandler struct {
	registry *session.Registry
	machine  *session.StateMachine
	desk     *questions.Desk
	executor *transport.Executor
	bans     *storage.BanList
	metrics  *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(
	registry *session.Registry,
	machine *session.StateMachine,
	desk *questions.Desk,
	executor *transport.Executor,
	bans *storage.BanList,
	metrics *observability.Metrics,
) *AdminHandler {
	return &AdminHandler{
		registry: registry,
		machine:  machine,
		desk:     desk,
		executor: executor,
		bans:     bans,
		metrics:  metrics,
	}
}

// ListSessions handles GET /admin/sessions.
func (h *AdminHandler) ListSessions(c *fiber.Ctx) error {
	active := h.registry.ActiveSessions()
	resp := dto.SessionsResponse{
		Active:  make([]dto.SessionResponse, 0, len(active)),
		Waiting: h.registry.WaitingUsers(),
	}
	for _, s := range active {
		resp.Active = append(resp.Active, dto.SessionResponse{
			UserID:    s.UserID,
			StaffName: s.StaffName,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats := h.desk.Snapshot()
	transitions, relayed := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		ActiveSessions:    len(h.registry.ActiveSessions()),
		WaitingUsers:      len(h.registry.WaitingUsers()),
		TotalQuestions:    stats.Total,
		PendingQuestions:  stats.Pending,
		AnsweredQuestions: stats.Answered,
		Transitions:       transitions,
		Relayed:           relayed,
	}})
}

// ListQuestions handles GET /admin/questions.
func (h *AdminHandler) ListQuestions(c *fiber.Ctx) error {
	pending := h.desk.Pending()
	resp := make([]dto.QuestionResponse, 0, len(pending))
	for _, q := range pending {
		resp = append(resp, dto.QuestionResponse{
			ID:       q.ID,
			AskerID:  q.AskerID,
			FullName: q.Profile.FullName,
			Status:   string(q.Status),
			AskedAt:  q.AskedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// DeleteSession handles DELETE /admin/sessions/:userID.
func (h *AdminHandler) DeleteSession(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userID"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}

	instructions, err := h.machine.ForceDisconnect(c.UserContext(), userID)
	if err != nil {
		return util.NewNotFound("session", map[string]any{"user_id": userID})
	}
	h.metrics.RecordTransition("force_disconnect")
	h.executor.Execute(c.UserContext(), instructions)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "released"}})
}

// DeleteQuestion handles DELETE /admin/questions/:id.
func (h *AdminHandler) DeleteQuestion(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.desk.Delete(id); err != nil {
		return util.NewNotFound("question", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// BanUser handles POST /admin/bans/:userID.
func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userID"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.bans.Ban(c.UserContext(), userID); err != nil {
		return util.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "banned"}})
}

// UnbanUser handles DELETE /admin/bans/:userID.
func (h *AdminHandler) UnbanUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userID"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.bans.Unban(c.UserContext(), userID); err != nil {
		return util.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "unbanned"}})
}
