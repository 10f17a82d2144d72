// Package terminal serves the TinyOS shell over websockets.
package terminal

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/keyboard"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/resources"
	"github.com/antibyte/retrobasic/pkg/shared"
	"github.com/antibyte/retrobasic/pkg/tinyos"
)

// TerminalHandler verwaltet WebSocket-Verbindungen und Terminal-Sitzungen
type TerminalHandler struct {
	os       *tinyos.TinyOS
	clients  map[*Client]bool
	mutex    sync.RWMutex
	upgrader websocket.Upgrader
	limiter  *resources.SessionLimiter
}

// Client repräsentiert einen verbundenen WebSocket-Client. It implements
// tinybasic.Output, so the interpreter writes straight into its send queue.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	handler   *TerminalHandler
	sessionID string
	session   *tinyos.Session
	keys      *keyboard.Buffer
	lines     chan string
	shutdown  chan struct{}
	closeOnce sync.Once
}

// NewTerminalHandler erstellt einen neuen TerminalHandler
func NewTerminalHandler(os *tinyos.TinyOS) *TerminalHandler {
	return &TerminalHandler{
		os:      os,
		clients: make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  configuration.GetInt("WebSocket", "read_buffer_size", 1024),
			WriteBufferSize: configuration.GetInt("WebSocket", "write_buffer_size", 1024),
			CheckOrigin:     checkOrigin,
		},
		limiter: resources.NewSessionLimiter(resources.LoadLimits()),
	}
}

// checkOrigin only admits browsers from the configured origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logger.WebSocketWarn("WebSocket request without Origin header rejected")
		return false
	}
	for _, allowed := range getAllowedOrigins() {
		if origin == allowed {
			return true
		}
	}
	logger.WebSocketWarn("WebSocket request from disallowed origin rejected: %s", origin)
	return false
}

// HandleWebSocket authenticates the session token, upgrades the
// connection and attaches a new shell session to it.
func (h *TerminalHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		logger.AuthWarn("WebSocket request without token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateSessionToken(tokenString)
	if err != nil {
		logger.AuthWarn("WebSocket request with invalid token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.limiter.RegisterSession(claims.SessionID, clientIP(r)); err != nil {
		if errors.Is(err, resources.ErrSessionActive) {
			http.Error(w, "Session already connected", http.StatusConflict)
			return
		}
		http.Error(w, "Too many sessions", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade hat bereits eine HTTP-Fehlerantwort geschrieben
		logger.WebSocketWarn("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		h.limiter.UnregisterSession(claims.SessionID)
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, getMaxChannelBuffer()),
		handler:   h,
		sessionID: claims.SessionID,
		keys:      keyboard.NewBuffer(),
		lines:     make(chan string, getMaxPendingLines()),
		shutdown:  make(chan struct{}),
	}

	session, err := h.os.NewSession(claims.SessionID, client, client.keys)
	if err != nil {
		logger.WebSocketWarn("Rejecting connection for session %s: %v", claims.SessionID, err)
		msg := "Session could not be opened"
		if errors.Is(err, tinyos.ErrSessionExists) {
			msg = "Session already connected"
		}
		conn.SetWriteDeadline(timeNow().Add(getWriteWait()))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg))
		conn.Close()
		h.limiter.UnregisterSession(claims.SessionID)
		return
	}
	client.session = session

	h.mutex.Lock()
	h.clients[client] = true
	h.mutex.Unlock()
	logger.Info(logger.AreaTerminal, "Client %s connected with session %s", conn.RemoteAddr(), claims.SessionID)

	go client.writePump()
	go client.commandLoop()

	client.writeMessage(shared.Message{Type: shared.MessageTypeSession, SessionID: claims.SessionID})
	client.writeMessage(shared.Message{Type: shared.MessageTypeMode, Mode: session.Mode()})
	client.sendPrompt()

	go client.readPump()
}

// clientIP strips the port from the remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientCount returns the number of connected clients.
func (h *TerminalHandler) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// cleanupClient removes the client and ends its session. Safe to call more than once.
func (h *TerminalHandler) cleanupClient(c *Client) {
	c.closeOnce.Do(func() {
		h.mutex.Lock()
		delete(h.clients, c)
		h.mutex.Unlock()

		close(c.shutdown)
		c.keys.Clear()
		if c.session != nil {
			c.session.Close()
		}
		c.conn.Close()
		h.limiter.UnregisterSession(c.sessionID)
		logger.Info(logger.AreaTerminal, "Client with session %s disconnected", c.sessionID)
	})
}

// Print implements tinybasic.Output.
func (c *Client) Print(text string) {
	c.writeMessage(shared.Message{Type: shared.MessageTypeText, Content: text, NoNewline: true})
}

// PrintLine implements tinybasic.Output.
func (c *Client) PrintLine(text string) {
	c.writeMessage(shared.Message{Type: shared.MessageTypeText, Content: text})
}

// Clear implements tinybasic.Output.
func (c *Client) Clear() {
	c.writeMessage(shared.Message{Type: shared.MessageTypeClear})
}

func (c *Client) sendPrompt() {
	c.writeMessage(shared.Message{
		Type:         shared.MessageTypePrompt,
		PromptSymbol: c.session.Prompt(),
		InputEnabled: shared.BoolPtr(true),
	})
}

// writeMessage encodes msg and queues it for the write pump.
func (c *Client) writeMessage(msg shared.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error(logger.AreaTerminal, "Failed to encode message for session %s: %v", c.sessionID, err)
		return
	}
	c.Send(data)
}

// Send queues a frame. It blocks while the queue is full so program output
// is never dropped, and gives up once the client shuts down.
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	case <-c.shutdown:
	}
}

// commandLoop feeds queued input lines to the session one at a time.
func (c *Client) commandLoop() {
	for {
		select {
		case line := <-c.lines:
			before := c.session.Mode()
			c.session.ProcessLine(line)
			if after := c.session.Mode(); after != before {
				c.writeMessage(shared.Message{Type: shared.MessageTypeMode, Mode: after})
			}
			c.sendPrompt()
		case <-c.shutdown:
			return
		}
	}
}
