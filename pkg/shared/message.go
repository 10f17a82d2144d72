package shared

// MessageType definiert den Typ einer Nachricht für die WebSocket-Kommunikation.
type MessageType int

// Die Nummern entsprechen den Werten, die das Terminal-Frontend erwartet.
const (
	MessageTypeText    MessageType = 0  // Textausgabe
	MessageTypeClear   MessageType = 1  // Bildschirm löschen
	MessageTypeMode    MessageType = 7  // Moduswechsel ("os", "basic")
	MessageTypeSession MessageType = 8  // Session-ID Übermittlung
	MessageTypePrompt  MessageType = 12 // Prompt-Symbol
	MessageTypeKeyDown MessageType = 16 // Taste gedrückt (für INKEY)
)

// Message is a frame sent from the server to the terminal frontend.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
	// Für TEXT - verhindert automatischen Zeilenumbruch im Frontend
	NoNewline bool `json:"noNewline"`

	SessionID string `json:"sessionId,omitempty"`

	// Für PROMPT
	InputEnabled *bool  `json:"inputEnabled,omitempty"`
	PromptSymbol string `json:"promptSymbol,omitempty"`
	// Für MODE
	Mode string `json:"mode,omitempty"`
}

// Request is a frame sent from the terminal frontend to the server.
// Key is only set for MessageTypeKeyDown.
type Request struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
	Key     string      `json:"key,omitempty"`
}

// BoolPtr returns a pointer to b, for the optional fields of Message.
func BoolPtr(b bool) *bool {
	return &b
}
