package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Progress message types pushed to instance watchers
const (
	MsgResponseStarted  MessageType = "response_started"
	MsgAnswerRecorded   MessageType = "answer_recorded"
	MsgResponseFinished MessageType = "response_finished"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages the dashboard connections watching survey instances. Any
// number of watchers can observe one instance; every progress event goes
// to all of them.
type Hub struct {
	watchers map[string]map[*Connection]struct{} // instanceID -> conns

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection represents one watcher's WebSocket connection
type Connection struct {
	InstanceID string
	Send       chan []byte
	Hub        *Hub
}

type broadcastMessage struct {
	InstanceID string
	Message    *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.InstanceID] == nil {
				h.watchers[conn.InstanceID] = make(map[*Connection]struct{})
			}
			h.watchers[conn.InstanceID][conn] = struct{}{}
			h.mu.Unlock()
			log.Printf("Watcher connected to instance %s", conn.InstanceID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.InstanceID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.watchers, conn.InstanceID)
					}
					log.Printf("Watcher disconnected from instance %s", conn.InstanceID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.watchers[msg.InstanceID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToInstance sends a message to every watcher of an instance
// (implements service.Broadcaster)
func (h *Hub) BroadcastToInstance(instanceID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &broadcastMessage{
		InstanceID: instanceID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
