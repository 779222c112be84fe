package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/civic"
	"github.com/civic-india/backend/internal/storage/models"
	"github.com/civic-india/backend/pkg/logger"
)

// CivicService is satisfied by *civic.Service.
type CivicService interface {
	Ask(ctx context.Context, req civic.AskRequest) (*civic.Answer, error)
	FactCheck(ctx context.Context, req civic.FactCheckRequest) (*civic.FactCheckResult, error)
	DraftGrievance(ctx context.Context, req civic.GrievanceRequest) (*civic.GrievanceDraft, error)
	History(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error)
}

type CivicHandler struct {
	service CivicService
}

func NewCivicHandler(service CivicService) *CivicHandler {
	return &CivicHandler{service: service}
}

func (h *CivicHandler) HandleCivicAI(c *fiber.Ctx) error {
	var req struct {
		Query    string `json:"query"`
		Language string `json:"language"`
		UserID   string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		req.UserID = c.Get("X-User-ID")
	}

	answer, err := h.service.Ask(c.UserContext(), civic.AskRequest{
		Query:    req.Query,
		Language: req.Language,
		UserID:   req.UserID,
	})
	if err != nil {
		return serviceError(c, "civicAI", err)
	}

	return c.JSON(answer)
}

func (h *CivicHandler) HandleFactCheck(c *fiber.Ctx) error {
	var req struct {
		Claim    string `json:"claim"`
		Language string `json:"language"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.FactCheck(c.UserContext(), civic.FactCheckRequest{
		Claim:    req.Claim,
		Language: req.Language,
	})
	if err != nil {
		return serviceError(c, "factCheck", err)
	}

	return c.JSON(result)
}

func (h *CivicHandler) HandleGrievanceDraft(c *fiber.Ctx) error {
	var req struct {
		Issue      string `json:"issue"`
		Department string `json:"department"`
		Language   string `json:"language"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	draft, err := h.service.DraftGrievance(c.UserContext(), civic.GrievanceRequest{
		Issue:      req.Issue,
		Department: req.Department,
		Language:   req.Language,
	})
	if err != nil {
		return serviceError(c, "grievanceDraft", err)
	}

	return c.JSON(draft)
}

func (h *CivicHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id", c.Get("X-User-ID"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(civic.DefaultHistoryLimit)))
	if err != nil || limit <= 0 || limit > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 100",
		})
	}

	history, err := h.service.History(c.UserContext(), userID, limit)
	if err != nil {
		return serviceError(c, "history", err)
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"history": history,
	})
}

func serviceError(c *fiber.Ctx, endpoint string, err error) error {
	if errors.Is(err, civic.ErrEmptyInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger.Error("Request failed", zap.String("endpoint", endpoint), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Service unavailable",
	})
}
