package service

import (
	"context"
	"log"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// Conversations derives per-counterparty conversation summaries from the
// raw message history.
type Conversations struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
}

// NewConversations constructs the aggregator.
func NewConversations(messages repositories.MessageRepository, users repositories.UserRepository) *Conversations {
	return &Conversations{messages: messages, users: users}
}

// List returns one summary per counterparty, most recently active first.
//
// The store returns messages newest-first, so the first message seen for a
// counterparty fixes the summary's content and timestamp. The unread count
// is computed over the whole scan, independent of which message happened
// to be the latest.
func (s *Conversations) List(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	msgs, err := s.messages.FindMessagesInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}

	order := make([]int, 0)
	latest := make(map[int]models.Message)
	unread := make(map[int]int)
	for _, m := range msgs {
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		if _, seen := latest[other]; !seen {
			latest[other] = m
			order = append(order, other)
		}
		if m.SenderID == other && m.ReceiverID == userID && !m.Read {
			unread[other]++
		}
	}

	names := s.displayNames(ctx, order)
	summaries := make([]models.ConversationSummary, 0, len(order))
	for _, other := range order {
		m := latest[other]
		summaries = append(summaries, models.ConversationSummary{
			UserID:       other,
			UserName:     names[other],
			LastContent:  m.Content,
			LastSenderID: m.SenderID,
			LastAt:       m.CreatedAt,
			UnreadCount:  unread[other],
		})
	}
	return summaries, nil
}

// displayNames resolves all counterparty names in one query. Counterparties
// that no longer exist keep an empty name.
func (s *Conversations) displayNames(ctx context.Context, ids []int) map[int]string {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	users, err := s.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		log.Printf("resolve display names: %v", err)
		return names
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}
