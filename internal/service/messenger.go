package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
)

// Notifier fans an event out to every live connection of one user. A user
// with no connections is a no-op, not an error.
type Notifier interface {
	SendToUser(userID int, event models.ServerEvent)
}

// Messenger validates, persists and delivers private messages, and keeps
// read state in sync.
type Messenger struct {
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	conversations *Conversations
	notifier      Notifier
	audit         *telemetry.AuditEmitter
}

// NewMessenger wires the delivery engine.
func NewMessenger(messages repositories.MessageRepository, users repositories.UserRepository, conversations *Conversations, notifier Notifier, audit *telemetry.AuditEmitter) *Messenger {
	return &Messenger{
		messages:      messages,
		users:         users,
		conversations: conversations,
		notifier:      notifier,
		audit:         audit,
	}
}

// Send persists an outgoing message and fans it out to both parties.
//
// Nothing is emitted unless the message is durably stored. Once it is,
// each emission is independent and best-effort: a dead receiver socket
// never blocks the sender's receipt, and vice versa.
func (s *Messenger) Send(ctx context.Context, senderID int, receiverID int, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyContent
	}
	if receiverID <= 0 {
		return models.Message{}, ErrInvalidUserID
	}

	if _, err := s.users.FindUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Message{}, ErrRecipientNotFound
		}
		return models.Message{}, fmt.Errorf("resolve recipient: %w", err)
	}

	msg, err := s.messages.InsertMessage(ctx, senderID, receiverID, content)
	if err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}

	observability.IncMessageSent()
	s.audit.Emit(ctx, "message_sent", fmt.Sprintf("message %d from %d to %d", msg.ID, senderID, receiverID), "", &senderID)

	s.notifier.SendToUser(senderID, models.ServerEvent{Event: models.EventMessageSent, Data: msg})
	s.notifier.SendToUser(receiverID, models.ServerEvent{Event: models.EventMessageReceived, Data: msg})

	s.pushConversations(ctx, senderID)
	if receiverID != senderID {
		s.pushConversations(ctx, receiverID)
	}
	return msg, nil
}

// MarkRead flips every unread message from the counterparty to the viewer
// in one batch and notifies the counterparty so sent-message receipts can
// turn into seen indicators.
func (s *Messenger) MarkRead(ctx context.Context, viewerID int, counterpartyID int) error {
	if counterpartyID <= 0 {
		return ErrInvalidUserID
	}

	updated, err := s.messages.MarkConversationRead(ctx, counterpartyID, viewerID)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	if updated > 0 {
		observability.AddMessagesRead(updated)
		s.audit.Emit(ctx, "messages_read", fmt.Sprintf("%d messages from %d read by %d", updated, counterpartyID, viewerID), "", &viewerID)
	}

	s.notifier.SendToUser(counterpartyID, models.ServerEvent{
		Event: models.EventMessagesRead,
		Data:  models.ReadReceiptData{By: viewerID},
	})
	return nil
}

// History returns the full message history between two users, oldest first.
func (s *Messenger) History(ctx context.Context, userID int, otherUserID int) ([]models.Message, error) {
	if otherUserID <= 0 {
		return nil, ErrInvalidUserID
	}
	msgs, err := s.messages.FindMessagesBetween(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// pushConversations refreshes one party's conversation list view. Failures
// are logged and swallowed; the message itself is already durable.
func (s *Messenger) pushConversations(ctx context.Context, userID int) {
	summaries, err := s.conversations.List(ctx, userID)
	if err != nil {
		log.Printf("refresh conversations for user %d: %v", userID, err)
		return
	}
	s.notifier.SendToUser(userID, models.ServerEvent{Event: models.EventConversations, Data: summaries})
}
