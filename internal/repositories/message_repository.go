package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

const messageColumns = `id, sender_id, receiver_id, content, read, status, created_at`

// MessageRepository defines the message store consumed by the messaging
// core. All mutation of the messages table goes through InsertMessage and
// MarkConversationRead.
type MessageRepository interface {
	InsertMessage(ctx context.Context, senderID int, receiverID int, content string) (models.Message, error)
	FindMessagesBetween(ctx context.Context, userA int, userB int) ([]models.Message, error)
	FindMessagesInvolving(ctx context.Context, userID int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, senderID int, receiverID int) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// InsertMessage stores an outgoing message with status sent and read=false.
func (r *MessageRepo) InsertMessage(ctx context.Context, senderID int, receiverID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns, senderID, receiverID, content).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Read, &msg.Status, &msg.CreatedAt)
	return msg, err
}

// FindMessagesBetween returns the full history between two users, oldest
// first. Ties on created_at are broken by insertion order.
func (r *MessageRepo) FindMessagesBetween(ctx context.Context, userA int, userB int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at ASC, id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userA, userB)
	return msgs, err
}

// FindMessagesInvolving returns every message the user sent or received,
// newest first, for conversation aggregation.
func (r *MessageRepo) FindMessagesInvolving(ctx context.Context, userID int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE sender_id=$1 OR receiver_id=$1
        ORDER BY created_at DESC, id DESC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID)
	return msgs, err
}

// MarkConversationRead flips every unread message from sender to receiver
// to read in one statement and reports how many rows changed. Messages
// inserted after the statement snapshot stay unread; the next call
// converges on them.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, senderID int, receiverID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read = TRUE, status = $1
        WHERE sender_id=$2 AND receiver_id=$3 AND read = FALSE`, models.StatusRead, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
