package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

func newMessenger(messageRepo *mocks.MessageRepositoryMock, userRepo *mocks.UserRepositoryMock, notifier *mocks.NotifierRecorder) *Messenger {
	conversations := NewConversations(messageRepo, userRepo)
	return NewMessenger(messageRepo, userRepo, conversations, notifier, nil)
}

func TestSendEmptyContent(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	notifier := mocks.NewNotifierRecorder()
	svc := newMessenger(messageRepo, userRepo, notifier)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.Send(context.Background(), 1, 2, content)
		require.ErrorIs(t, err, ErrEmptyContent)
	}

	messageRepo.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "FindUserByID", mock.Anything, mock.Anything)
	require.Empty(t, notifier.EventsFor(1))
}

func TestSendRecipientNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	notifier := mocks.NewNotifierRecorder()
	svc := newMessenger(messageRepo, userRepo, notifier)

	userRepo.On("FindUserByID", mock.Anything, 99).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := svc.Send(context.Background(), 1, 99, "hi")
	require.ErrorIs(t, err, ErrRecipientNotFound)
	messageRepo.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Empty(t, notifier.EventsFor(1))
	require.Empty(t, notifier.EventsFor(99))
}

func TestSendPersistsThenFansOut(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	notifier := mocks.NewNotifierRecorder()
	svc := newMessenger(messageRepo, userRepo, notifier)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stored := models.Message{ID: 7, SenderID: 1, ReceiverID: 2, Content: "hello", Status: models.StatusSent, CreatedAt: now}

	userRepo.On("FindUserByID", mock.Anything, 2).Return(models.User{ID: 2, Name: "bob"}, nil).Once()
	messageRepo.On("InsertMessage", mock.Anything, 1, 2, "hello").Return(stored, nil).Once()
	messageRepo.On("FindMessagesInvolving", mock.Anything, 1).Return([]models.Message{stored}, nil).Once()
	messageRepo.On("FindMessagesInvolving", mock.Anything, 2).Return([]models.Message{stored}, nil).Once()
	userRepo.On("FindUsersByIDs", mock.Anything, []int{2}).Return([]models.User{{ID: 2, Name: "bob"}}, nil).Once()
	userRepo.On("FindUsersByIDs", mock.Anything, []int{1}).Return([]models.User{{ID: 1, Name: "alice"}}, nil).Once()

	msg, err := svc.Send(context.Background(), 1, 2, "  hello  ")
	require.NoError(t, err)
	require.Equal(t, 7, msg.ID)

	senderEvents := notifier.EventsFor(1)
	require.Len(t, senderEvents, 2)
	require.Equal(t, models.EventMessageSent, senderEvents[0].Event)
	require.Equal(t, models.EventConversations, senderEvents[1].Event)

	receiverEvents := notifier.EventsFor(2)
	require.Len(t, receiverEvents, 2)
	require.Equal(t, models.EventMessageReceived, receiverEvents[0].Event)
	require.Equal(t, models.EventConversations, receiverEvents[1].Event)

	messageRepo.AssertExpectations(t)
}

func TestSendStoreFailureAbortsFanOut(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	notifier := mocks.NewNotifierRecorder()
	svc := newMessenger(messageRepo, userRepo, notifier)

	userRepo.On("FindUserByID", mock.Anything, 2).Return(models.User{ID: 2, Name: "bob"}, nil).Once()
	messageRepo.On("InsertMessage", mock.Anything, 1, 2, "hello").Return(models.Message{}, assert.AnError).Once()

	_, err := svc.Send(context.Background(), 1, 2, "hello")
	require.Error(t, err)
	require.Empty(t, notifier.EventsFor(1))
	require.Empty(t, notifier.EventsFor(2))
}

func TestMarkReadBatchAndNotify(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	notifier := mocks.NewNotifierRecorder()
	svc := newMessenger(messageRepo, userRepo, notifier)

	messageRepo.On("MarkConversationRead", mock.Anything, 2, 1).Return(int64(3), nil).Once()

	require.NoError(t, svc.MarkRead(context.Background(), 1, 2))

	events := notifier.EventsFor(2)
	require.Len(t, events, 1)
	require.Equal(t, models.EventMessagesRead, events[0].Event)
	require.Equal(t, models.ReadReceiptData{By: 1}, events[0].Data)
	messageRepo.AssertExpectations(t)
}

func TestMarkReadInvalidCounterparty(t *testing.T) {
	svc := newMessenger(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), mocks.NewNotifierRecorder())
	require.ErrorIs(t, svc.MarkRead(context.Background(), 1, 0), ErrInvalidUserID)
}

func TestHistoryAscending(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	notifier := mocks.NewNotifierRecorder()
	svc := newMessenger(messageRepo, new(mocks.UserRepositoryMock), notifier)

	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	history := []models.Message{
		{ID: 1, SenderID: 1, ReceiverID: 2, Content: "hello", CreatedAt: t1},
		{ID: 2, SenderID: 2, ReceiverID: 1, Content: "hi", CreatedAt: t1.Add(time.Minute)},
	}
	messageRepo.On("FindMessagesBetween", mock.Anything, 1, 2).Return(history, nil).Once()

	msgs, err := svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "hello", msgs[0].Content)
	require.Equal(t, "hi", msgs[1].Content)
}

func TestHistoryEmptyIsNotNil(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	svc := newMessenger(messageRepo, new(mocks.UserRepositoryMock), mocks.NewNotifierRecorder())

	messageRepo.On("FindMessagesBetween", mock.Anything, 1, 2).Return(([]models.Message)(nil), nil).Once()

	msgs, err := svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, msgs)
	require.Empty(t, msgs)
}
