// Package gateway bridges the price engine to connected websocket clients.
// On every tick it advances the engine and pushes each ticker's new price to
// exactly the connections subscribed to it; tickers nobody watches still
// advance internally but generate no network traffic.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/auth"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/catalog"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/engine"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/registry"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming control message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the HTTP layer for the REST API; the websocket
		// is admitted by token instead.
		return true
	},
}

// TokenVerifier authenticates the token presented at upgrade time.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// client represents a single websocket connection. send is never closed:
// readPump queues acks on it concurrently with the gateway, so lifetime is
// signalled through done instead. Closing done tells writePump to finish;
// messages still buffered in send at that point are discarded.
type client struct {
	gw   *Gateway
	id   string
	meta domain.UserMeta
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Gateway manages the set of connected clients, the tick loop, and the
// per-connection control protocol.
type Gateway struct {
	registry *registry.Registry
	engine   *engine.Engine
	verifier TokenVerifier
	logger   *slog.Logger

	tickInterval time.Duration

	register   chan *client
	unregister chan *client
	// done is closed when Run exits so register/unregister senders never
	// block on a loop that is gone.
	done chan struct{}

	mu      sync.RWMutex
	clients map[string]*client
}

// New creates a Gateway. Run must be started before HandleWS accepts
// connections.
func New(reg *registry.Registry, eng *engine.Engine, verifier TokenVerifier, tickInterval time.Duration, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry:     reg,
		engine:       eng,
		verifier:     verifier,
		logger:       logger.With(slog.String("component", "gateway")),
		tickInterval: tickInterval,
		register:     make(chan *client),
		unregister:   make(chan *client),
		done:         make(chan struct{}),
		clients:      make(map[string]*client),
	}
}

// Run is the gateway's main event loop: client registration, unregistration,
// and the price tick. It should be called in a goroutine and exits when the
// context is cancelled, after which every client's done channel is closed and
// its pumps wind down on their own.
func (gw *Gateway) Run(ctx context.Context) error {
	defer close(gw.done)

	ticker := time.NewTicker(gw.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gw.mu.Lock()
			for id, c := range gw.clients {
				close(c.done)
				delete(gw.clients, id)
				gw.registry.RemoveConnection(id)
			}
			gw.mu.Unlock()
			return ctx.Err()

		case c := <-gw.register:
			gw.admit(c)

		case c := <-gw.unregister:
			gw.drop(c)

		case <-ticker.C:
			gw.tick()
		}
	}
}

// admit registers a connection and synchronously queues its init snapshot.
func (gw *Gateway) admit(c *client) {
	if err := gw.registry.AddConnection(c.id, c.meta); err != nil {
		// Duplicate ids should not happen with uuid identities; refuse the
		// connection rather than corrupt the registry.
		gw.logger.Error("refusing connection",
			slog.String("conn_id", c.id),
			slog.String("error", err.Error()),
		)
		close(c.done)
		return
	}

	gw.mu.Lock()
	gw.clients[c.id] = c
	gw.mu.Unlock()

	gw.sendInit(c, gw.registry.SubscriptionsOf(c.id))

	gw.logger.Info("client connected",
		slog.String("conn_id", c.id),
		slog.String("email", c.meta.Email),
		slog.Int("total_clients", gw.clientCount()),
	)
}

// drop removes a connection from the gateway and the registry. Safe to call
// for an already-dropped client; repeats change nothing and log nothing.
func (gw *Gateway) drop(c *client) {
	gw.mu.Lock()
	_, ok := gw.clients[c.id]
	if ok {
		delete(gw.clients, c.id)
		close(c.done)
	}
	gw.mu.Unlock()

	if !ok {
		return
	}
	gw.registry.RemoveConnection(c.id)

	gw.logger.Info("client disconnected",
		slog.String("conn_id", c.id),
		slog.String("email", c.meta.Email),
		slog.Int("total_clients", gw.clientCount()),
	)
}

// tick advances every price and fans each one out to its subscribers only.
func (gw *Gateway) tick() {
	updates := gw.engine.Advance()

	for ticker, price := range updates {
		subscribers := gw.registry.Subscribers(ticker)
		if len(subscribers) == 0 {
			continue
		}

		data, err := domain.NewEnvelope(domain.MsgPriceUpdate, map[string]float64{ticker: price})
		if err != nil {
			gw.logger.Error("marshal price update", slog.String("error", err.Error()))
			continue
		}

		gw.mu.RLock()
		for _, id := range subscribers {
			c, ok := gw.clients[id]
			if !ok {
				// Subscriber snapshot can include a connection removed
				// between lookup and delivery; drop the send.
				continue
			}
			select {
			case c.send <- data:
			default:
				gw.logger.Warn("dropping price update for slow client",
					slog.String("conn_id", id),
					slog.String("ticker", ticker),
				)
			}
		}
		gw.mu.RUnlock()
	}
}

// sendInit queues a full snapshot (all prices plus the connection's current
// subscriptions) to one client.
func (gw *Gateway) sendInit(c *client, subscriptions []string) {
	if subscriptions == nil {
		subscriptions = []string{}
	}
	data, err := domain.NewEnvelope(domain.MsgInit, domain.InitPayload{
		Prices:        gw.engine.CurrentPrices(),
		Subscriptions: subscriptions,
	})
	if err != nil {
		gw.logger.Error("marshal init", slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// HandleWS authenticates and upgrades an HTTP request, registers the client,
// and starts its read and write pumps.
// GET /ws
func (gw *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := gw.verifier.Verify(wsToken(r))
	if err != nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		gw: gw,
		id: uuid.New().String(),
		meta: domain.UserMeta{
			UserID: claims.UserID,
			Email:  claims.Email,
		},
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	select {
	case gw.register <- c:
	case <-gw.done:
		// The run loop already exited; there is nobody to serve this
		// connection.
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// wsToken extracts the auth token from the query string or the Authorization
// header.
func wsToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// clientCount returns the number of currently connected clients.
func (gw *Gateway) clientCount() int {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return len(gw.clients)
}

// readPump reads control messages from the websocket. Each connection has
// exactly one readPump, so a connection's subscribe/unsubscribe effects are
// applied in receipt order.
func (c *client) readPump() {
	defer func() {
		select {
		case c.gw.unregister <- c:
		case <-c.gw.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gw.logger.Warn("unexpected close error",
					slog.String("conn_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg domain.ControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			// Malformed control frames are ignored: fail closed, no state change.
			continue
		}
		c.handleControl(msg)
	}
}

// handleControl applies one control message and acknowledges it to the
// originating connection only.
func (c *client) handleControl(msg domain.ControlMessage) {
	switch msg.Type {
	case domain.MsgSubscribe:
		if !catalog.Supports(msg.Ticker) {
			// Unknown tickers are dropped without an acknowledgment.
			return
		}
		c.gw.registry.Subscribe(c.id, msg.Ticker)
		c.ack(domain.MsgSubscribed, msg.Ticker)

	case domain.MsgUnsubscribe:
		c.gw.registry.Unsubscribe(c.id, msg.Ticker)
		c.ack(domain.MsgUnsubscribed, msg.Ticker)

	case domain.MsgSyncSubscriptions:
		applied := c.gw.registry.ReplaceSubscriptions(c.id, msg.Tickers)
		c.gw.sendInit(c, applied)

	default:
		// Unknown message types are ignored.
	}
}

// ack queues a subscribed/unsubscribed echo back to this client.
func (c *client) ack(msgType, ticker string) {
	data, err := domain.NewEnvelope(msgType, domain.TickerAck{Ticker: ticker})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the gateway to the websocket connection and
// sends periodic ping frames for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			// The gateway dropped this client.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
