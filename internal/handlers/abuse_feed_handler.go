package handlers

import (
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	abusefeed "github.com/aydin-k/StudioSplitBack/internal/websocket"
	"github.com/aydin-k/StudioSplitBack/pkg/utils"
)

// AbuseFeedHandler upgrades admin dashboard connections onto the abuse feed
// hub. Browsers cannot set Authorization headers on WebSocket upgrades, so the
// token is also accepted as a query parameter.
type AbuseFeedHandler struct {
	hub       *abusefeed.Hub
	jwtSecret string
}

func NewAbuseFeedHandler(hub *abusefeed.Hub, jwtSecret string) *AbuseFeedHandler {
	return &AbuseFeedHandler{hub: hub, jwtSecret: jwtSecret}
}

func (h *AbuseFeedHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	if claims.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *AbuseFeedHandler) HandleWebSocket(conn *websocket.Conn) {
	client := abusefeed.NewClient(h.hub, conn)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *AbuseFeedHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
