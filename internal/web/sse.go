package web

import (
	"sync"

	"github.com/RevCBH/medalert/internal/events"
)

// clientBuffer is the per-client event buffer
const clientBuffer = 256

// Hub manages SSE client connections and broadcasts events.
// It runs an event loop in a separate goroutine.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	// Channels for client management
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event

	// done signals the Run loop to exit
	done     chan struct{}
	stopOnce sync.Once
}

// Client represents a connected browser.
// A client with a session only receives that session's events plus
// service-wide ones.
type Client struct {
	id      string
	session string
	events  chan events.Event
}

// NewHub creates a new SSE hub with initialized channels.
// Call Run() to start the event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop.
// Blocks until Stop() is called - run in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.events)
			}
			h.clients = make(map[*Client]struct{})
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.events <- event:
				default:
					// Buffer full, drop event for this client
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop signals the hub to stop processing and closes all clients.
// Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client to receive events. Registering with a stopped
// hub closes the client immediately.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.events)
	}
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends an event to all interested clients.
// If a client's buffer is full, the event is dropped for that client.
// Does nothing once the hub is stopped.
func (h *Hub) Broadcast(e events.Event) {
	select {
	case h.broadcast <- e:
	case <-h.done:
	}
}

// Handler adapts the hub to an event bus subscriber
func (h *Hub) Handler() events.Handler {
	return h.Broadcast
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient creates a client. An empty session subscribes to everything.
func NewClient(id, session string) *Client {
	return &Client{
		id:      id,
		session: session,
		events:  make(chan events.Event, clientBuffer),
	}
}

func (c *Client) wants(e events.Event) bool {
	return c.session == "" || e.Session == "" || e.Session == c.session
}
