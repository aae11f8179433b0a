package web

import (
	"net/http"
	"sync"
	"time"

	"dreamsite/internal/ticker"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries public market data only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type streamClient struct {
	conn *websocket.Conn
	send chan ticker.View
}

// Hub fans ticker snapshots out to WebSocket clients. A client that cannot
// keep up misses updates instead of stalling the poller.
type Hub struct {
	ticker      Ticker
	logger      *zap.Logger
	unsubscribe func()

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewHub(tk Ticker, logger *zap.Logger) *Hub {
	h := &Hub{
		ticker:  tk,
		logger:  logger.Named("stream"),
		clients: make(map[*streamClient]struct{}),
	}
	h.unsubscribe = tk.Subscribe(h.broadcast)
	return h
}

func (h *Hub) broadcast(snap ticker.Snapshot) {
	view := snap.View()

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- view:
		default:
			h.logger.Debug("stream client lagging, update dropped")
		}
	}
}

// Serve upgrades the request and streams the current snapshot followed by
// every update until the client goes away.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &streamClient{conn: conn, send: make(chan ticker.View, sendBuffer)}
	if snap, ok := h.ticker.Snapshot(); ok {
		cl.send <- snap.View()
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	h.wg.Add(2)
	h.mu.Unlock()

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) remove(cl *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readPump only watches for the peer closing and answers pongs.
func (h *Hub) readPump(cl *streamClient) {
	defer h.wg.Done()
	defer h.remove(cl)

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *streamClient) {
	defer h.wg.Done()
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case view, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := cl.conn.WriteJSON(view); err != nil {
				h.logger.Debug("stream write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close unsubscribes from the ticker and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*streamClient, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	h.unsubscribe()
	for _, cl := range clients {
		h.remove(cl)
		_ = cl.conn.Close()
	}
	h.wg.Wait()
}
