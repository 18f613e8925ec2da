package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/auth"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/service"
)

// Store operations triggered by a websocket event run on their own
// deadline, detached from the socket: a disconnect mid-flight cancels
// delivery, never the write.
const eventTimeout = 10 * time.Second

// Handler owns the realtime messaging endpoint. Connections arrive
// unauthenticated and bind to a user through the in-band authenticate
// event; every other user-scoped event is refused until then.
type Handler struct {
	registry      *Registry
	verifier      auth.TokenVerifier
	messenger     *service.Messenger
	conversations *service.Conversations
}

// NewHandler constructs the websocket handler.
func NewHandler(registry *Registry, verifier auth.TokenVerifier, messenger *service.Messenger, conversations *service.Conversations) *Handler {
	return &Handler{
		registry:      registry,
		verifier:      verifier,
		messenger:     messenger,
		conversations: conversations,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type getMessagesPayload struct {
	OtherUserID int `json:"otherUserId"`
}

type sendMessagePayload struct {
	Content    string `json:"content"`
	ReceiverID int    `json:"receiverId"`
}

type markAsReadPayload struct {
	SenderID int `json:"senderId"`
}

// Handle upgrades the connection and runs its read loop. Events from one
// connection are processed strictly in arrival order.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := NewClient(conn)

	meta := observability.MetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive()
	h.publishLifecycle(ctx, "ws_connect", info, "")

	var closeReason string
	defer func() {
		if userID, ok := h.registry.Resolve(client); ok {
			info.UserID = userID
		}
		h.registry.Unregister(client)
		observability.DecWSActive()
		h.publishLifecycle(ctx, "ws_disconnect", info, closeReason)
		client.Close()
	}()

	for {
		_, raw, err := client.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}

		var evt models.ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.sendError(client, "malformed event")
			continue
		}
		observability.IncWSEvent(evt.Event)
		h.dispatch(client, info, evt)
	}
}

func (h *Handler) dispatch(client *Client, info ConnInfo, evt models.ClientEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if evt.Event == models.EventAuthenticate {
		h.handleAuthenticate(ctx, client, info, evt.Data)
		return
	}

	userID, ok := h.registry.Resolve(client)
	if !ok {
		h.sendError(client, service.ErrUnauthenticated.Error())
		return
	}

	switch evt.Event {
	case models.EventGetConversations:
		h.handleGetConversations(ctx, client, userID)
	case models.EventGetMessages:
		h.handleGetMessages(ctx, client, userID, evt.Data)
	case models.EventSendMessage:
		h.handleSendMessage(ctx, client, userID, evt.Data)
	case models.EventMarkAsRead:
		h.handleMarkAsRead(ctx, client, userID, evt.Data)
	default:
		h.sendError(client, "unknown event")
	}
}

func (h *Handler) handleAuthenticate(ctx context.Context, client *Client, info ConnInfo, data json.RawMessage) {
	var payload authenticatePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		h.sendError(client, "invalid credentials")
		return
	}

	userID, err := h.verifier.VerifyToken(payload.Token)
	if err != nil {
		h.sendError(client, "invalid credentials")
		return
	}

	h.registry.Register(client, userID, info)

	// Push the conversation list right away so the client's inbox view is
	// populated without an extra round trip.
	h.handleGetConversations(ctx, client, userID)
}

func (h *Handler) handleGetConversations(ctx context.Context, client *Client, userID int) {
	summaries, err := h.conversations.List(ctx, userID)
	if err != nil {
		log.Printf("list conversations for user %d: %v", userID, err)
		h.sendError(client, "failed to load conversations")
		return
	}
	h.reply(client, models.ServerEvent{Event: models.EventConversations, Data: summaries})
}

func (h *Handler) handleGetMessages(ctx context.Context, client *Client, userID int, data json.RawMessage) {
	var payload getMessagesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "malformed event")
		return
	}

	msgs, err := h.messenger.History(ctx, userID, payload.OtherUserID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			h.sendError(client, "invalid user id")
			return
		}
		log.Printf("load messages for user %d: %v", userID, err)
		h.sendError(client, "failed to load messages")
		return
	}
	h.reply(client, models.ServerEvent{Event: models.EventMessages, Data: msgs})
}

func (h *Handler) handleSendMessage(ctx context.Context, client *Client, userID int, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "malformed event")
		return
	}

	// Sender identity always comes from the connection binding, never
	// from the payload.
	if _, err := h.messenger.Send(ctx, userID, payload.ReceiverID, payload.Content); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			h.sendError(client, "message content is empty")
		case errors.Is(err, service.ErrInvalidUserID):
			h.sendError(client, "invalid user id")
		case errors.Is(err, service.ErrRecipientNotFound):
			h.sendError(client, "recipient not found")
		default:
			log.Printf("send message from user %d: %v", userID, err)
			h.sendError(client, "failed to send message")
		}
	}
	// The messageSent receipt reaches this connection through the
	// sender's broadcast group.
}

func (h *Handler) handleMarkAsRead(ctx context.Context, client *Client, userID int, data json.RawMessage) {
	var payload markAsReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "malformed event")
		return
	}

	if err := h.messenger.MarkRead(ctx, userID, payload.SenderID); err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			h.sendError(client, "invalid user id")
			return
		}
		log.Printf("mark read for user %d: %v", userID, err)
		h.sendError(client, "failed to mark messages as read")
	}
}

func (h *Handler) reply(client *Client, event models.ServerEvent) {
	if err := client.Send(event); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}

func (h *Handler) sendError(client *Client, message string) {
	h.reply(client, models.ServerEvent{Event: models.EventError, Data: models.ErrorData{Message: message}})
}

func (h *Handler) publishLifecycle(ctx context.Context, name string, info ConnInfo, reason string) {
	observability.IncWSEvent(name)
	_ = observability.PublishEvent(ctx, "ws_events.messaging", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: observability.WSEventPayload{
			Event:      name,
			ConnID:     info.ConnID,
			UserID:     info.UserID,
			DeviceID:   info.DeviceID,
			IP:         info.IP,
			DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
			Reason:     reason,
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
