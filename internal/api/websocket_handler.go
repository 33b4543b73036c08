package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/grimoire/internal/config"
	"github.com/wfunc/grimoire/internal/game"
	"github.com/wfunc/grimoire/internal/middleware"
	ws "github.com/wfunc/grimoire/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	sessions *game.SessionManager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器，并把会话视图作为推送数据源
func NewWebSocketHandler(hub *ws.Hub, sessions *game.SessionManager, cfg *config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	hub.SetStateSource(func(ctx context.Context, sessionID string) (interface{}, error) {
		return sessions.View(ctx, sessionID)
	})
	hub.SetAuthorizer(func(ctx context.Context, storytellerID uint, sessionID string) error {
		_, err := ownedSession(ctx, sessions, storytellerID, sessionID)
		return err
	})

	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Connect 建立连接，?session= 指定要观察的会话
func (h *WebSocketHandler) Connect(c *gin.Context) {
	storytellerID, _ := middleware.GetStorytellerID(c)

	sessionID := c.Query("session")
	if sessionID != "" {
		if _, err := ownedSession(c.Request.Context(), h.sessions, storytellerID, sessionID); err != nil {
			respondError(c, err)
			return
		}
	}

	// 升级为WebSocket连接
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.Uint("storyteller_id", storytellerID),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, storytellerID, sessionID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	// 启动读写协程
	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.Uint("storyteller_id", storytellerID),
		zap.String("session_id", sessionID))
}

// Stats 在线连接统计
func (h *WebSocketHandler) Stats(c *gin.Context) {
	respondOK(c, gin.H{
		"online": h.hub.GetOnlineCount(),
	})
}
