package ws

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServeWs upgrades the request and starts a client on hub
func ServeWs(hub *Hub, c *gin.Context) {
	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("Error upgrading connection", "error", err.Error())
		return
	}

	client := newClient(uuid.New().String(), conn, hub)
	client.Start()
}
