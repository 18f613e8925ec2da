package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/service"
)

// MessagesHandler serves the polling fallback for conversation and
// history reads. Sending stays websocket-only so delivery remains push.
type MessagesHandler struct {
	conversations *service.Conversations
	messenger     *service.Messenger
}

// NewMessagesHandler builds a MessagesHandler.
func NewMessagesHandler(conversations *service.Conversations, messenger *service.Messenger) *MessagesHandler {
	return &MessagesHandler{conversations: conversations, messenger: messenger}
}

// ListConversations returns the caller's conversation summaries.
func (h *MessagesHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	summaries, err := h.conversations.List(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list conversations for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// GetHistory returns the full message history between the caller and
// another user, oldest first.
func (h *MessagesHandler) GetHistory(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.messenger.History(c.Request.Context(), userID, otherID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		log.Printf("load messages for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
