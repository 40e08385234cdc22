package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rstays/internal/infra/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin policy is enforced by the bearer token, not the Origin
	// header
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	Registry *ws.Registry
	Logger   *slog.Logger
}

// Connect upgrades the request and parks the socket in the registry until
// the peer disconnects.
func (h WSHandler) Connect(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket upgrade failed", "error", err, "user_id", user.ID)
		}
		return
	}
	h.Registry.Attach(user.ID, conn)
}

var _ WSHTTP = WSHandler{}
