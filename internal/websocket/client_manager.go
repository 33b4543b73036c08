package websocket

import (
	"sync"

	"go.uber.org/zap"
)

// ClientManager 客户端与对局会话的索引
type ClientManager struct {
	clients  map[string]*Client   // clientID -> client
	sessions map[string][]*Client // sessionID -> clients
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewClientManager 创建客户端管理器
func NewClientManager(logger *zap.Logger) *ClientManager {
	return &ClientManager{
		clients:  make(map[string]*Client),
		sessions: make(map[string][]*Client),
		logger:   logger,
	}
}

// AddClient 添加客户端，SessionID非空时同时加入会话
func (m *ClientManager) AddClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ID] = client
	if sessionID := client.session(); sessionID != "" {
		m.sessions[sessionID] = append(m.sessions[sessionID], client)
	}

	m.logger.Debug("客户端已添加", zap.String("client_id", client.ID))
}

// RemoveClient 移除客户端，返回是否存在
func (m *ClientManager) RemoveClient(clientID string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil, false
	}

	m.leave(client)
	delete(m.clients, clientID)

	m.logger.Debug("客户端已移除", zap.String("client_id", clientID))
	return client, true
}

// JoinSession 切换客户端关注的会话
func (m *ClientManager) JoinSession(clientID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[clientID]
	if !exists {
		return false
	}
	if client.session() == sessionID {
		return true
	}

	m.leave(client)
	client.setSession(sessionID)
	if sessionID != "" {
		m.sessions[sessionID] = append(m.sessions[sessionID], client)
	}
	return true
}

// leave 从会话中移除（需要持有锁）
func (m *ClientManager) leave(client *Client) {
	sessionID := client.session()
	if sessionID == "" {
		return
	}

	clients := m.sessions[sessionID]
	for i, c := range clients {
		if c == client {
			m.sessions[sessionID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(m.sessions[sessionID]) == 0 {
		delete(m.sessions, sessionID)
	}
}

// GetClient 获取客户端
func (m *ClientManager) GetClient(clientID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[clientID]
	return client, ok
}

// SessionClients 获取会话内的所有客户端
func (m *ClientManager) SessionClients(sessionID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := m.sessions[sessionID]
	result := make([]*Client, len(clients))
	copy(result, clients)
	return result
}

// AllClients 获取全部客户端
func (m *ClientManager) AllClients() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		result = append(result, c)
	}
	return result
}

// Count 客户端数量
func (m *ClientManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// SessionCount 有客户端关注的会话数量
func (m *ClientManager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
