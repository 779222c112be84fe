package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/civic"
	"github.com/civic-india/backend/internal/middleware/validation"
	"github.com/civic-india/backend/pkg/logger"
)

const wsRequestTimeout = 60 * time.Second

type WebSocketHandler struct {
	service CivicService
}

func NewWebSocketHandler(service CivicService) *WebSocketHandler {
	return &WebSocketHandler{service: service}
}

// Upgrade rejects plain HTTP requests to the websocket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type wsRequest struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language"`
	UserID   string `json:"user_id"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "query" {
			continue
		}

		if verr := checkMessage(msg); verr != nil {
			if verr.Suspicious {
				logger.Warn("Potential XSS attempt",
					zap.String("ip", c.RemoteAddr().String()),
					zap.String("path", "/api/v1/ws"),
					zap.String("field", verr.Field),
				)
			}
			h.sendError(c, verr.Message)
			continue
		}

		if err := h.streamAnswer(c, msg); err != nil {
			logger.Error("Failed to stream answer", zap.Error(err))
			if errors.Is(err, civic.ErrEmptyInput) {
				h.sendError(c, err.Error())
			} else {
				h.sendError(c, "Service unavailable")
			}
		}
	}
}

// checkMessage holds websocket queries to the same body rules as
// POST /api/v1/civicAI.
func checkMessage(msg wsRequest) *validation.Error {
	return validation.CheckFields(validation.CivicQueryPath, map[string]string{
		"query":    msg.Content,
		"language": msg.Language,
		"user_id":  msg.UserID,
	}, validation.DefaultMaxFieldLength)
}

func (h *WebSocketHandler) streamAnswer(c *websocket.Conn, msg wsRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
	defer cancel()

	if err := h.send(c, "status", "Gathering verified public information..."); err != nil {
		return err
	}

	answer, err := h.service.Ask(ctx, civic.AskRequest{
		Query:    msg.Content,
		Language: msg.Language,
		UserID:   msg.UserID,
	})
	if err != nil {
		return err
	}

	for _, chunk := range chunkText(answer.Response) {
		if err := h.send(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return c.WriteJSON(fiber.Map{
		"type":       "complete",
		"message_id": answer.ID,
		"intent":     answer.Intent,
		"language":   answer.Language,
		"source":     answer.Source,
		"urls":       answer.URLs,
		"disclaimer": answer.Disclaimer,
		"latency_ms": answer.LatencyMS,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(fiber.Map{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	if err := c.WriteJSON(fiber.Map{"type": "error", "error": errorMsg}); err != nil {
		logger.Debug("Failed to send WebSocket error", zap.Error(err))
	}
}

// chunkText splits text into words for streaming. Each word but the last
// keeps a trailing space and line breaks are sent as their own chunk, so
// concatenating the chunks reproduces the text with whitespace normalised.
func chunkText(text string) []string {
	var chunks []string
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		for j, w := range words {
			if j < len(words)-1 {
				w += " "
			}
			chunks = append(chunks, w)
		}
		if i < len(lines)-1 {
			chunks = append(chunks, "\n")
		}
	}
	return chunks
}
