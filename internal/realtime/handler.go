package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tribe-service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers send credentials via the token query parameter, not
		// cookies, so cross-origin upgrades carry no ambient authority.
		return true
	},
}

// Authenticator validates the handshake credential token.
type Authenticator interface {
	Authenticate(token string) (*auth.UserIdentity, error)
}

// UserDirectory resolves the display name shown in typing indicators.
// A lookup failure means the token's user no longer exists and is
// treated as an authentication failure.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	hub           *Hub
	authenticator Authenticator
	users         UserDirectory
	participants  ParticipantChecker
	presence      PresenceStore
	log           *slog.Logger
}

func NewHandler(hub *Hub, authenticator Authenticator, users UserDirectory,
	participants ParticipantChecker, presence PresenceStore, log *slog.Logger) *Handler {
	return &Handler{
		hub:           hub,
		authenticator: authenticator,
		users:         users,
		participants:  participants,
		presence:      presence,
		log:           log,
	}
}

// ServeWS handles GET /ws?token=JWT. Authentication happens after the
// upgrade so a rejected client receives a policy-violation close frame
// rather than an opaque failed handshake.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	identity, err := h.authenticator.Authenticate(c.Query("token"))
	if err != nil {
		h.reject(conn, "authentication failed")
		return
	}

	displayName, err := h.users.DisplayName(c.Request.Context(), identity.ID)
	if err != nil {
		h.log.Warn("unknown user on handshake", "user_id", identity.ID, "error", err)
		h.reject(conn, "authentication failed")
		return
	}

	session := NewSession(h.hub, NewWSConn(conn), identity.ID, displayName,
		h.participants, h.presence, h.log)
	session.Run(c.Request.Context())
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	conn.Close()
}
