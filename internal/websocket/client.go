package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/grimoire/internal/logger"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound  = errors.New("客户端未找到")
	ErrSessionNotFound = errors.New("会话无在线客户端")
	ErrSendBufferFull  = errors.New("发送缓冲区已满")
	ErrClientClosed    = errors.New("客户端已关闭")
)

// Client WebSocket客户端，对应说书人的一块屏幕
type Client struct {
	ID            string
	StorytellerID uint
	SessionID     string
	Hub           *Hub
	Conn          *websocket.Conn
	Send          chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, storytellerID uint, sessionID string) *Client {
	return &Client{
		ID:            uuid.NewString(),
		StorytellerID: storytellerID,
		SessionID:     sessionID,
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan []byte, hub.opts.SendBuffer),
	}
}

// enqueue 非阻塞写入发送队列
func (c *Client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// session 当前关注的会话
func (c *Client) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SessionID
}

func (c *Client) setSession(sessionID string) {
	c.mu.Lock()
	c.SessionID = sessionID
	c.mu.Unlock()
}

// close 关闭发送队列，之后的写入返回 ErrClientClosed
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	opts := c.Hub.opts
	c.Conn.SetReadLimit(opts.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	opts := c.Hub.opts
	ticker := time.NewTicker(opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		c.Hub.logger.Warn("解析WebSocket消息失败", zap.String("client_id", c.ID))
		c.sendError("消息格式错误")
		return
	}
	logger.LogWebSocketMessage("receive", msg.Type, msg.SessionID)

	switch msg.Type {
	case MessageTypePing:
		c.Hub.SendToClient(c.ID, newMessage(MessageTypePong, c.session(), nil))

	case MessageTypePong:
		c.Hub.logger.Debug("收到pong", zap.String("client_id", c.ID))

	case MessageTypeWatch:
		if msg.SessionID != "" && c.Hub.auth != nil {
			if err := c.Hub.auth(context.Background(), c.StorytellerID, msg.SessionID); err != nil {
				c.sendError(err.Error())
				return
			}
		}
		c.Hub.clients.JoinSession(c.ID, msg.SessionID)
		if msg.SessionID != "" {
			c.Hub.pushCurrent(c)
		}

	case MessageTypeRefresh:
		if c.session() == "" {
			c.sendError("未关注任何会话")
			return
		}
		c.Hub.pushCurrent(c)

	default:
		c.Hub.logger.Warn("收到不支持的消息类型",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type))
		c.sendError("不支持的消息类型: " + msg.Type)
	}
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	c.Hub.SendToClient(c.ID, newMessage(MessageTypeError, c.session(), map[string]string{"error": message}))
}
