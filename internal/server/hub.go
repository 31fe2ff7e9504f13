package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/threadboard/internal/chat"
	"github.com/Tyrowin/threadboard/internal/metrics"
	"github.com/Tyrowin/threadboard/internal/protocol"
)

// Dispatcher applies connection lifecycle and inbound events. The hub calls
// it from its Run goroutine only.
type Dispatcher interface {
	Attach(id chat.ConnID)
	Detach(id chat.ConnID)
	Handle(ctx context.Context, id chat.ConnID, ev protocol.Event) (any, bool)
}

// Hub manages all WebSocket client connections. Registration, unregistration
// and inbound events are serialized through Run; outbound frames are queued
// on each client's send buffer by Deliver.
type Hub struct {
	log        *slog.Logger
	dispatcher Dispatcher
	clients    map[chat.ConnID]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub with no dispatcher. Bind one before calling Run.
func NewHub(log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:        log,
		clients:    make(map[chat.ConnID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Bind sets the dispatcher. It must be called before Run.
func (h *Hub) Bind(d Dispatcher) {
	h.dispatcher = d
}

// Deliver encodes the event once and queues it for every listed connection
// still registered. Connections whose buffer is full are dropped.
func (h *Hub) Deliver(conns []chat.ConnID, event string, data any) {
	payload, err := protocol.Encode(event, data)
	if err != nil {
		h.log.Error("Could not encode outbound event", "event", event, "error", err)
		return
	}

	var failed []*Client
	for _, id := range conns {
		client, ok := h.lookup(id)
		if !ok {
			continue
		}
		if !h.safeSend(client, payload) {
			metrics.DroppedDeliveries.Inc()
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

func (h *Hub) lookup(id chat.ConnID) (*Client, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	client, ok := h.clients[id]
	return client, ok
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "conn", client.id, "panic", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	// Check if client is still registered and not closed
	registered, exists := h.clients[client.id]
	if !exists || registered != client || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop. It returns once the hub is shut down.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case in := <-h.inbound:
			h.handleInbound(in)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	metrics.ConnectedClients.Set(float64(clientCount))
	h.log.Info("Client registered", "conn", client.id, "remote", client.addr, "clients", clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	h.dispatcher.Attach(client.id)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	registered, ok := h.clients[client.id]
	if ok && registered == client {
		delete(h.clients, client.id)
		client.closed = true
		clientCount := len(h.clients)
		h.mutex.Unlock()
		// Close the channel after releasing the lock
		close(client.send)
		metrics.ConnectedClients.Set(float64(clientCount))
		h.log.Info("Client unregistered", "conn", client.id, "remote", client.addr, "clients", clientCount)
	} else {
		h.mutex.Unlock()
	}

	// The client may already have been dropped by removeFailedClients; its
	// session still has to end.
	h.dispatcher.Detach(client.id)
}

func (h *Hub) handleInbound(in inboundEvent) {
	metrics.InboundEvents.WithLabelValues(in.event.Name()).Inc()

	reply, ok := h.dispatcher.Handle(h.ctx, in.client.id, in.event)
	if !ok || in.ack == nil {
		return
	}

	payload, err := protocol.EncodeAck(*in.ack, reply)
	if err != nil {
		h.log.Error("Could not encode acknowledgement", "conn", in.client.id, "event", in.event.Name(), "error", err)
		return
	}
	if !h.safeSend(in.client, payload) {
		metrics.DroppedDeliveries.Inc()
		h.removeFailedClients([]*Client{in.client})
	}
}

// removeFailedClients removes clients that failed to receive messages and closes their channels
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if registered, exists := h.clients[client.id]; exists && registered == client {
			delete(h.clients, client.id)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			h.log.Warn("Client removed due to full send buffer", "conn", client.id, "remote", client.addr)
		}
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()
	metrics.ConnectedClients.Set(float64(clientCount))

	// Close channels after releasing the lock
	for _, ch := range channelsToClose {
		close(ch)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// shutdownClients closes every connection and send buffer so both pumps of
// each client return.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		client.closed = true
		delete(h.clients, id)
	}
	h.mutex.Unlock()
	metrics.ConnectedClients.Set(0)

	for _, client := range clients {
		close(client.send)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					h.log.Warn("Error closing client connection", "conn", client.id, "remote", client.addr, "error", err)
				}
			}
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
