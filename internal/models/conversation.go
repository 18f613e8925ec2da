package models

import "time"

// ConversationSummary is the derived digest of one counterparty thread for
// a viewing user. It is never persisted; the aggregator rebuilds it from
// the message history on demand.
type ConversationSummary struct {
	UserID       int       `json:"user_id"`
	UserName     string    `json:"user_name"`
	LastContent  string    `json:"last_content"`
	LastSenderID int       `json:"last_sender_id"`
	LastAt       time.Time `json:"last_at"`
	UnreadCount  int       `json:"unread_count"`
}
