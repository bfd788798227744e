package websocket

import (
	"sync"

	"talentlink/pkg/logger"
)

// Manager owns the process-local connection registry: a user may hold
// several live connections, and each conversation maps to a room of the
// connections currently viewing it. The registry is rebuilt from scratch on
// every connect/disconnect and lost on restart; it only reflects currently
// open connections. Constructed once per process and passed by reference.
type Manager struct {
	mutex   sync.RWMutex
	clients map[string]map[*Client]struct{} // userID -> live connections
	rooms   map[string]map[*Client]struct{} // conversationID -> connections in the room
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection to the user's personal channel and broadcasts
// presence=online if this is the user's first live connection.
func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.UserID] = conns
	}
	wasOffline := len(conns) == 0
	conns[client] = struct{}{}
	m.mutex.Unlock()

	logger.Info("Client registered: %s", client.UserID)

	if wasOffline {
		m.BroadcastToAll(NewEvent(EventPresence, PresencePayload{UserID: client.UserID, Online: true}).Marshal())
	}
}

// Unregister synchronously removes the connection from the registry and
// every room it joined; a user with other live connections stays online.
// Unregistering the same connection twice (stalled-buffer drop racing the
// read pump's deferred cleanup) is a no-op the second time.
func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	removed := false
	if conns, ok := m.clients[client.UserID]; ok {
		if _, live := conns[client]; live {
			delete(conns, client)
			client.closeSend()
			removed = true
		}
		if len(conns) == 0 {
			delete(m.clients, client.UserID)
		}
	}
	for room, members := range m.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	userOffline := removed && len(m.clients[client.UserID]) == 0
	m.mutex.Unlock()

	if !removed {
		return
	}

	logger.Info("Client unregistered: %s", client.UserID)

	if userOffline {
		m.BroadcastToAll(NewEvent(EventPresence, PresencePayload{UserID: client.UserID, Online: false}).Marshal())
	}
}

func (m *Manager) JoinRoom(conversationID string, client *Client) {
	m.mutex.Lock()
	members, ok := m.rooms[conversationID]
	if !ok {
		members = make(map[*Client]struct{})
		m.rooms[conversationID] = members
	}
	members[client] = struct{}{}
	m.mutex.Unlock()
}

func (m *Manager) LeaveRoom(conversationID string, client *Client) {
	m.mutex.Lock()
	if members, ok := m.rooms[conversationID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, conversationID)
		}
	}
	m.mutex.Unlock()
}

// SendToUser delivers payload to every connection on the user's personal
// channel. Delivery is at-most-once and best-effort.
func (m *Manager) SendToUser(userID string, payload []byte) {
	if payload == nil {
		return
	}

	m.mutex.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for client := range m.clients[userID] {
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	m.deliver(targets, payload)
}

// BroadcastToRoom delivers payload to every connection currently in the
// conversation's room, optionally excluding one user.
func (m *Manager) BroadcastToRoom(conversationID string, payload []byte, excludeUserID string) {
	if payload == nil {
		return
	}

	m.mutex.RLock()
	targets := make([]*Client, 0, len(m.rooms[conversationID]))
	for client := range m.rooms[conversationID] {
		if excludeUserID != "" && client.UserID == excludeUserID {
			continue
		}
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	m.deliver(targets, payload)
}

// BroadcastToAll delivers payload to every live connection (global events
// such as presence).
func (m *Manager) BroadcastToAll(payload []byte) {
	if payload == nil {
		return
	}

	m.mutex.RLock()
	var targets []*Client
	for _, conns := range m.clients {
		for client := range conns {
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	m.deliver(targets, payload)
}

// IsUserInRoom reports whether any of the user's connections has the
// conversation's room open.
func (m *Manager) IsUserInRoom(conversationID, userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for client := range m.rooms[conversationID] {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// IsOnline reports whether the user holds at least one live connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// deliver pushes payload to each target without blocking; a connection with
// a full send buffer is dropped rather than stalling the broadcast.
func (m *Manager) deliver(targets []*Client, payload []byte) {
	var stalled []*Client
	for _, client := range targets {
		if !client.trySend(payload) {
			logger.Warn("Send buffer full for %s, dropping connection", client.UserID)
			stalled = append(stalled, client)
		}
	}
	for _, client := range stalled {
		m.Unregister(client)
	}
}
