package models

import "encoding/json"

// Client-to-server event names.
const (
	EventAuthenticate     = "authenticate"
	EventGetConversations = "getConversations"
	EventGetMessages      = "getMessages"
	EventSendMessage      = "sendMessage"
	EventMarkAsRead       = "markAsRead"
)

// Server-to-client event names.
const (
	EventConversations   = "conversations"
	EventMessages        = "messages"
	EventMessageSent     = "messageSent"
	EventMessageReceived = "messageReceived"
	EventMessagesRead    = "messagesRead"
	EventError           = "error"
)

// ClientEvent is the envelope for events received over a websocket.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is the envelope for events pushed to clients.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ErrorData carries a user-safe failure description. The connection stays
// open after an error event.
type ErrorData struct {
	Message string `json:"message"`
}

// ReadReceiptData identifies who read the messages.
type ReadReceiptData struct {
	By int `json:"by"`
}
