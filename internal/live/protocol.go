package live

import (
	"encoding/json"

	"github.com/driftboard/driftboard/backend-go/internal/engine"
)

type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypeInput   = "input"
	TypeCommand = "command"

	// Server to client
	TypeWelcome       = "welcome"
	TypeStatus        = "status"
	TypeTextRequest   = "text.request"
	TypeStickyRequest = "sticky.request"
	TypeError         = "error"
)

type WelcomePayload struct {
	ClientID string        `json:"clientId"`
	BoardID  string        `json:"boardId"`
	PageID   string        `json:"pageId"`
	Status   engine.Status `json:"status"`
}

// StatusPayload answers every input and command. Consumed mirrors the
// engine's verdict on whether the host should suppress the browser default.
type StatusPayload struct {
	PageID   string        `json:"pageId"`
	Consumed bool          `json:"consumed,omitempty"`
	Changed  bool          `json:"changed,omitempty"`
	Status   engine.Status `json:"status"`
}

type TextRequestPayload struct {
	PageID string `json:"pageId"`
	engine.TextRequest
}

type StickyRequestPayload struct {
	PageID string `json:"pageId"`
	engine.StickyRequest
}

type ErrorPayload struct {
	Message string `json:"message"`
}
