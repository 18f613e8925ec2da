package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.messaging", mock.Anything).Return(nil)

	emitter := telemetry.NewAuditEmitter(publisher, "audit.messaging", "messaging-service", "test")
	userID := 7
	emitter.Emit(context.Background(), "message_sent", "message 12 delivered", "req-1", &userID)

	publisher.AssertExpectations(t)
	envelope, ok := publisher.LastEnvelope()
	require.True(t, ok)
	require.Equal(t, 1, envelope.SchemaVersion)
	require.Equal(t, "audit_log", envelope.EventType)
	require.Equal(t, "messaging-service", envelope.Service)
	require.Equal(t, "test", envelope.Environment)
	require.Equal(t, "req-1", envelope.RequestID)
	require.NotNil(t, envelope.UserID)
	require.Equal(t, 7, *envelope.UserID)
	require.Equal(t, "message_sent", envelope.Payload.Action)
	require.Equal(t, "message 12 delivered", envelope.Payload.Text)
	require.NotEmpty(t, envelope.OccurredAt)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.messaging", mock.Anything).Return(errors.New("broker down"))

	emitter := telemetry.NewAuditEmitter(publisher, "audit.messaging", "messaging-service", "test")
	emitter.Emit(context.Background(), "message_read", "conversation 3", "req-2", nil)

	publisher.AssertExpectations(t)
}

func TestEmitOnNilEmitterIsNoop(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "message_sent", "ignored", "", nil)
}
