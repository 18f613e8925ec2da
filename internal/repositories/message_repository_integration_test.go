//go:build integration

package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"messaging-service/internal/db"
	"messaging-service/internal/models"
)

// Runs against a real Postgres: TEST_DB_DSN=postgres://... go test -tags integration ./internal/repositories
func openTestDB(t *testing.T) (*MessageRepo, *UserRepo) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	database, err := db.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewMessageRepo(database), NewUserRepo(database)
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.test", prefix, time.Now().UnixNano())
}

func TestMarkConversationReadOnlyAffectsExistingUnread(t *testing.T) {
	messages, users := openTestDB(t)
	ctx := context.Background()

	alice, err := users.CreateUser(ctx, "alice", uniqueEmail("alice"), "hash")
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, "bob", uniqueEmail("bob"), "hash")
	require.NoError(t, err)

	first, err := messages.InsertMessage(ctx, bob.ID, alice.ID, "first")
	require.NoError(t, err)
	second, err := messages.InsertMessage(ctx, bob.ID, alice.ID, "second")
	require.NoError(t, err)

	updated, err := messages.MarkConversationRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated)

	// A message arriving after the batch must stay unread until the next
	// markAsRead from the viewer.
	third, err := messages.InsertMessage(ctx, bob.ID, alice.ID, "third")
	require.NoError(t, err)

	history, err := messages.FindMessagesBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	byID := make(map[int]models.Message, len(history))
	for _, m := range history {
		byID[m.ID] = m
	}

	require.True(t, byID[first.ID].Read)
	require.Equal(t, models.StatusRead, byID[first.ID].Status)
	require.True(t, byID[second.ID].Read)
	require.Equal(t, models.StatusRead, byID[second.ID].Status)

	require.False(t, byID[third.ID].Read)
	require.Equal(t, models.StatusSent, byID[third.ID].Status)

	// Already-read rows are not rewritten; only the new arrival matches.
	updated, err = messages.MarkConversationRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)
}

func TestMarkConversationReadIsDirectional(t *testing.T) {
	messages, users := openTestDB(t)
	ctx := context.Background()

	alice, err := users.CreateUser(ctx, "alice", uniqueEmail("alice"), "hash")
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, "bob", uniqueEmail("bob"), "hash")
	require.NoError(t, err)

	incoming, err := messages.InsertMessage(ctx, bob.ID, alice.ID, "for alice")
	require.NoError(t, err)
	outgoing, err := messages.InsertMessage(ctx, alice.ID, bob.ID, "for bob")
	require.NoError(t, err)

	updated, err := messages.MarkConversationRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	history, err := messages.FindMessagesBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	byID := make(map[int]models.Message, len(history))
	for _, m := range history {
		byID[m.ID] = m
	}

	require.True(t, byID[incoming.ID].Read)
	require.False(t, byID[outgoing.ID].Read)
}
