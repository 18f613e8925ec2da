package models

import "time"

// Message delivery status. Transitions are forward-only: a message is
// created as sent and flipped to read by the read-state tracker.
const (
	StatusSent = "sent"
	StatusRead = "read"
)

// Message represents a private message between two users.
type Message struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	Read       bool      `db:"read" json:"read"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
