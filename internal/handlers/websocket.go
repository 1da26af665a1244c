package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler is the outward surface of the account change feed:
// one authenticated connection per UI, subscribed to the caller's own
// account, receiving a snapshot on connect and after every commit.
type WebSocketHandler struct {
	ledger *services.Ledger
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewWebSocketHandler(ledger *services.Ledger) *WebSocketHandler {
	return &WebSocketHandler{ledger: ledger}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	accountID := c.GetString("account_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Serialize writes: feed callbacks and pong replies share the conn.
	var writeMu sync.Mutex
	send := func(msg wsMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			zap.L().Debug("websocket write failed",
				zap.String("account_id", accountID),
				zap.Error(err))
		}
	}

	unsubscribe, err := h.ledger.Subscribe(c.Request.Context(), accountID, func(acc *models.Account) {
		if acc == nil {
			send(wsMessage{Type: "ACCOUNT_MISSING"})
			return
		}
		send(wsMessage{Type: "BALANCE_UPDATE", Data: acc})
	})
	if err != nil {
		zap.L().Warn("websocket subscribe failed",
			zap.String("account_id", accountID),
			zap.Error(err))
		return
	}
	// Subscription lifetime is the connection lifetime.
	defer unsubscribe()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket closed", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "PING":
			send(wsMessage{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}})
		}
	}
}
