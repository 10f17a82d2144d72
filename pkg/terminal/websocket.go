package terminal

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/keyboard"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/shared"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Hilfsfunktionen für WebSocket-Konfigurationswerte, siehe [Network] in settings.cfg

func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 90*time.Second)
}

func getPingPeriod() time.Duration {
	return (getPongWait() * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 64) * 1024)
}

func getMaxChannelBuffer() int {
	return configuration.GetInt("Network", "max_channel_buffer", 1000)
}

func getMaxPendingLines() int {
	return configuration.GetInt("Network", "max_pending_lines", 32)
}

func getAllowedOrigins() []string {
	return configuration.GetStringList("WebSocket", "allowed_origins",
		[]string{"http://localhost:8080", "http://127.0.0.1:8080"})
}

// parseRequest decodes a client frame. Anything that is not a JSON
// request is taken as a plain input line.
func parseRequest(message []byte) shared.Request {
	var request shared.Request
	if err := json.Unmarshal(message, &request); err != nil {
		return shared.Request{Type: shared.MessageTypeText, Content: string(message)}
	}
	return request
}

// readPump liest Nachrichten vom WebSocket. Key events go straight into
// the keyboard buffer so INKEY() sees them while a program runs; lines are
// queued for commandLoop.
func (c *Client) readPump() {
	defer c.handler.cleanupClient(c)

	c.conn.SetReadLimit(getMaxMessageSize())
	c.conn.SetReadDeadline(timeNow().Add(getPongWait()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(timeNow().Add(getPongWait()))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.WebSocketWarn("Unexpected close for session %s: %v", c.sessionID, err)
			} else {
				logger.WebSocketDebug("Connection closed for session %s: %v", c.sessionID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := c.handler.limiter.CheckMessage(c.sessionID, len(message)); err != nil {
			logger.SecurityWarn("Dropping frame from session %s: %v", c.sessionID, err)
			continue
		}

		request := parseRequest(message)
		if request.Type == shared.MessageTypeKeyDown {
			if n := c.keys.PushString(keyboard.KeyToBytes(request.Key)); n == 0 && request.Key != "" {
				logger.Debug(logger.AreaTerminal, "Keyboard buffer full for session %s, key %q dropped", c.sessionID, request.Key)
			}
			continue
		}
		if request.Type != shared.MessageTypeText || request.Content == "" {
			logger.Debug(logger.AreaTerminal, "Ignoring frame of type %d from session %s", request.Type, c.sessionID)
			continue
		}

		select {
		case c.lines <- request.Content:
		default:
			logger.Warn(logger.AreaTerminal, "Input queue full for session %s, line dropped", c.sessionID)
		}
	}
}

// writePump pumpt Nachrichten vom send-Kanal zum WebSocket, one frame per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(timeNow().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.WebSocketDebug("Write failed for session %s: %v", c.sessionID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(timeNow().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Error(logger.AreaTerminal, "Failed to send ping for session %s: %v", c.sessionID, err)
				return
			}
		case <-c.shutdown:
			c.conn.SetWriteDeadline(timeNow().Add(getWriteWait()))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
