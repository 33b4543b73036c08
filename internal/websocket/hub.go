package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wfunc/grimoire/internal/config"
	"go.uber.org/zap"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"` // 消息类型
	SessionID string          `json:"session_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// MessageType 消息类型
const (
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// MessageTypeState 对局状态推送
	MessageTypeState = "state"
	// MessageTypeWatch 客户端切换关注的会话
	MessageTypeWatch = "watch"
	// MessageTypeRefresh 客户端请求当前状态
	MessageTypeRefresh = "refresh"
)

// StateSource 读取会话当前状态
type StateSource func(ctx context.Context, sessionID string) (interface{}, error)

// Authorizer 校验说书人能否关注会话
type Authorizer func(ctx context.Context, storytellerID uint, sessionID string) error

// Options 连接参数
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultOptions 默认连接参数
func DefaultOptions() Options {
	return Options{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 8192,
		SendBuffer:     64,
	}
}

// OptionsFromConfig 从配置构造连接参数
func OptionsFromConfig(cfg *config.WebSocketConfig) Options {
	opts := DefaultOptions()
	if cfg.WriteTimeout > 0 {
		opts.WriteWait = cfg.WriteTimeout
	}
	if cfg.PongTimeout > 0 {
		opts.PongWait = cfg.PongTimeout
	}
	if cfg.PingInterval > 0 && cfg.PingInterval < opts.PongWait {
		opts.PingPeriod = cfg.PingInterval
	} else {
		// ping周期必须小于pong超时
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize > 0 {
		opts.MaxMessageSize = cfg.MaxMessageSize
	}
	return opts
}

// Hub WebSocket连接管理中心
type Hub struct {
	clients *ClientManager

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	source StateSource
	auth   Authorizer
	opts   Options
	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger, opts Options) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    NewClientManager(logger),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		opts:       opts,
		logger:     logger,
	}
}

// SetStateSource 设置状态来源，用于连接建立和刷新时推送当前状态
func (h *Hub) SetStateSource(source StateSource) {
	h.source = source
}

// SetAuthorizer 设置watch消息的权限校验
func (h *Hub) SetAuthorizer(auth Authorizer) {
	h.auth = auth
}

// Run 运行Hub直到ctx取消
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			for _, client := range h.clients.AllClients() {
				h.unregisterClient(client)
			}
			return
		}
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clients.AddClient(client)

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Uint("storyteller_id", client.StorytellerID),
		zap.String("session_id", client.session()))

	h.SendToClient(client.ID, newMessage(MessageTypeConnected, client.session(), map[string]string{
		"client_id": client.ID,
	}))

	if client.session() != "" {
		h.pushCurrent(client)
	}
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients.RemoveClient(client.ID); !ok {
		return
	}
	client.close()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
}

// pushCurrent 推送客户端关注会话的当前状态
func (h *Hub) pushCurrent(client *Client) {
	if h.source == nil {
		return
	}
	sessionID := client.session()
	state, err := h.source(context.Background(), sessionID)
	if err != nil {
		client.sendError(err.Error())
		return
	}
	h.SendToClient(client.ID, newMessage(MessageTypeState, sessionID, state))
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	client, ok := h.clients.GetClient(clientID)
	if !ok {
		return ErrClientNotFound
	}
	return client.enqueue(data)
}

// SendToSession 发送消息给关注指定会话的所有客户端
func (h *Hub) SendToSession(sessionID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	clients := h.clients.SessionClients(sessionID)
	if len(clients) == 0 {
		return ErrSessionNotFound
	}

	for _, client := range clients {
		if err := client.enqueue(data); err != nil {
			h.logger.Warn("会话客户端发送缓冲区满",
				zap.String("client_id", client.ID),
				zap.String("session_id", sessionID))
		}
	}
	return nil
}

// PushState 推送对局状态，签名与会话监听器一致
func (h *Hub) PushState(sessionID string, state interface{}) {
	if err := h.SendToSession(sessionID, newMessage(MessageTypeState, sessionID, state)); err != nil && err != ErrSessionNotFound {
		h.logger.Warn("推送对局状态失败", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	return h.clients.Count()
}

// SessionClientCount 会话的在线连接数
func (h *Hub) SessionClientCount(sessionID string) int {
	return len(h.clients.SessionClients(sessionID))
}

// Register 注册客户端，Hub已停止时返回false
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func newMessage(msgType, sessionID string, data interface{}) *Message {
	msg := &Message{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err == nil {
			msg.Data = raw
		}
	}
	return msg
}
