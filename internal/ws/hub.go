// Package ws доставляет новые уведомления подключённым клиентам.
// Доставка best effort: журнал уведомлений остаётся источником истины.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/logger"
)

// Hub управляет WebSocket клиентами, сгруппированными по журналу уведомлений.
type Hub struct {
	mu         sync.RWMutex
	clients    map[entity.NotificationOwner]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
}

type message struct {
	owner   entity.NotificationOwner
	payload []byte
}

// Event - сообщение, которое получает клиент.
type Event struct {
	Type string       `json:"type"`
	Data EventPayload `json:"data"`
}

type EventPayload struct {
	ID        int64                      `json:"id"`
	Message   string                     `json:"message"`
	Kind      string                     `json:"kind"`
	Payload   entity.NotificationPayload `json:"payload"`
	CreatedAt time.Time                  `json:"createdAt"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[entity.NotificationOwner]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
	}
}

// Run обслуживает хаб до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.owner, msg.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish не блокирует вызывающего: при переполненной очереди событие отбрасывается.
func (h *Hub) Publish(owner entity.NotificationOwner, event *entity.NotificationEvent) {
	raw, err := json.Marshal(Event{
		Type: "notification",
		Data: EventPayload{
			ID:        event.ID,
			Message:   event.Message,
			Kind:      string(event.Kind),
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		},
	})
	if err != nil {
		logger.Component("ws").WithField("error", err.Error()).Error("не удалось сериализовать уведомление")
		return
	}

	select {
	case h.broadcast <- message{owner: owner, payload: raw}:
	default:
		logger.Component("ws").WithField("owner", owner).Warn("очередь рассылки переполнена, событие пропущено")
	}
}

// Connected возвращает число подключений владельца.
func (h *Hub) Connected(owner entity.NotificationOwner) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.owner]; !ok {
		h.clients[client.owner] = make(map[*Client]struct{})
	}
	h.clients[client.owner][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.owner]; ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.clients, client.owner)
		}
	}
}

func (h *Hub) send(owner entity.NotificationOwner, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[owner] {
		select {
		case client.send <- payload:
		default:
			// медленный клиент: соединение закрывается, он переподключится
			logger.Component("ws").WithFields(logrus.Fields{"owner": owner}).Warn("клиент не успевает читать, отключаем")
			go client.conn.Close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, owner)
	}
}
