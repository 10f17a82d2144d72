package terminal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/shared"
	"github.com/antibyte/retrobasic/pkg/tinyos"
)

func newTestServer(t *testing.T) (*TerminalHandler, *httptest.Server) {
	t.Helper()
	handler := NewTerminalHandler(tinyos.NewTinyOS(nil))
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)
	return handler, server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	token, err := auth.GenerateSessionToken(sessionID)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	header := http.Header{"Origin": []string{"http://localhost:8080"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor reads frames until match returns true or the deadline passes.
func waitFor(t *testing.T, conn *websocket.Conn, match func(shared.Message) bool) shared.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no matching frame: %v", err)
		}
		var msg shared.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid frame %q: %v", data, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, request shared.Request) {
	t.Helper()
	if err := conn.WriteJSON(request); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func TestBasicOverWebSocket(t *testing.T) {
	_, server := newTestServer(t)
	conn := dial(t, server, "ws-basic")

	waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypeSession && m.SessionID == "ws-basic"
	})

	send(t, conn, shared.Request{Content: "basic"})
	waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypeMode && m.Mode == tinyos.ModeBasic
	})

	send(t, conn, shared.Request{Content: "PRINT 2+3*4"})
	waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypeText && m.Content == "14"
	})

	send(t, conn, shared.Request{Content: "EXIT"})
	prompt := waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypePrompt && m.PromptSymbol == tinyos.PromptOS
	})
	if prompt.InputEnabled == nil || !*prompt.InputEnabled {
		t.Error("prompt should enable input")
	}
}

func TestKeyDownFeedsInkey(t *testing.T) {
	_, server := newTestServer(t)
	conn := dial(t, server, "ws-keys")

	send(t, conn, shared.Request{Content: "basic"})
	waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypeMode && m.Mode == tinyos.ModeBasic
	})

	send(t, conn, shared.Request{Type: shared.MessageTypeKeyDown, Key: "A"})
	// Key frames bypass the line queue, so the key is buffered before the
	// next line is processed.
	send(t, conn, shared.Request{Content: "PRINT INKEY()"})
	waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypeText && m.Content == "65"
	})
}

func TestPlainTextFrameIsALine(t *testing.T) {
	_, server := newTestServer(t)
	conn := dial(t, server, "ws-plain")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("echo hi")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, conn, func(m shared.Message) bool {
		return m.Type == shared.MessageTypeText && m.Content == "hi"
	})
}

func TestIgnoresUnknownAndEmptyFrames(t *testing.T) {
	_, server := newTestServer(t)
	conn := dial(t, server, "ws-ignore")

	send(t, conn, shared.Request{Type: shared.MessageType(99), Content: "hello"})
	send(t, conn, shared.Request{Type: shared.MessageTypeClear, Content: "hello"})
	send(t, conn, shared.Request{Content: ""})
	send(t, conn, shared.Request{Content: "echo ok"})

	// Nur der Begrüßungs-Prompt darf vor der Antwort auf "echo ok" kommen
	prompts := 0
	waitFor(t, conn, func(m shared.Message) bool {
		switch {
		case m.Type == shared.MessageTypePrompt:
			prompts++
		case m.Type == shared.MessageTypeText && m.Content == "Hello from TinyOS!":
			t.Error("frame with unknown type was run as a command")
		}
		return m.Type == shared.MessageTypeText && m.Content == "ok"
	})
	if prompts != 1 {
		t.Errorf("got %d prompts before the echo, want 1", prompts)
	}
}

func TestRejectsMissingOrInvalidToken(t *testing.T) {
	_, server := newTestServer(t)
	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://localhost:8080"}}

	for _, url := range []string{base, base + "?token=bogus"} {
		_, resp, err := websocket.DefaultDialer.Dial(url, header)
		if err == nil {
			t.Fatalf("dial %s should fail", url)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("dial %s: expected 401, got %v", url, resp)
		}
	}
}

func TestRejectsForeignOrigin(t *testing.T) {
	_, server := newTestServer(t)
	token, err := auth.GenerateSessionToken("ws-origin")
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	header := http.Header{"Origin": []string{"http://evil.example"}}

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial from foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}

func TestDisconnectClosesSession(t *testing.T) {
	handler, server := newTestServer(t)
	conn := dial(t, server, "ws-close")
	waitFor(t, conn, func(m shared.Message) bool { return m.Type == shared.MessageTypePrompt })

	if handler.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", handler.ClientCount())
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for handler.ClientCount() != 0 || handler.os.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client not cleaned up: clients=%d sessions=%d", handler.ClientCount(), handler.os.SessionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		in   string
		want shared.Request
	}{
		{`{"content":"LIST"}`, shared.Request{Content: "LIST"}},
		{`{"type":16,"key":"Enter"}`, shared.Request{Type: shared.MessageTypeKeyDown, Key: "Enter"}},
		{`10 PRINT 1`, shared.Request{Type: shared.MessageTypeText, Content: "10 PRINT 1"}},
	}
	for _, test := range tests {
		if got := parseRequest([]byte(test.in)); got != test.want {
			t.Errorf("parseRequest(%q) = %+v, want %+v", test.in, got, test.want)
		}
	}
}

func TestRejectsSecondConnectionForSession(t *testing.T) {
	_, server := newTestServer(t)
	conn := dial(t, server, "ws-dup")
	waitFor(t, conn, func(m shared.Message) bool { return m.Type == shared.MessageTypePrompt })

	token, err := auth.GenerateSessionToken("ws-dup")
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	header := http.Header{"Origin": []string{"http://localhost:8080"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("second connection should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %v", resp)
	}

	// the first connection keeps working
	send(t, conn, shared.Request{Content: "hello"})
	waitFor(t, conn, func(m shared.Message) bool { return m.Content == "Hello from TinyOS!" })
}
