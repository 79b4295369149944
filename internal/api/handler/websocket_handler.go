package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/FuatYavas/ParkVision/internal/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscriptionMessage is the only inbound frame viewers send.
type subscriptionMessage struct {
	Action string `json:"action"`
	LotID  int    `json:"parking_lot_id"`
}

type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	h.hub.Register(conn)

	go func() {
		defer h.hub.Unregister(conn)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Printf("ws: read error: %v", err)
				}
				return
			}

			var msg subscriptionMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				// Unrecognized frames are ignored, not fatal.
				continue
			}
			switch msg.Action {
			case "subscribe":
				if msg.LotID > 0 {
					h.hub.Subscribe(conn, msg.LotID)
				}
			case "unsubscribe":
				if msg.LotID > 0 {
					h.hub.Unsubscribe(conn, msg.LotID)
				}
			}
		}
	}()
}
