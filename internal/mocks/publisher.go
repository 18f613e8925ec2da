package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/telemetry"
)

// PublisherMock stands in for the audit event bus. Tests that care about
// the published envelope use LastEnvelope after setting expectations with
// mock.Anything for the event argument.
type PublisherMock struct {
	mock.Mock

	envelopes []telemetry.AuditEnvelope
}

var _ telemetry.Publisher = (*PublisherMock)(nil)

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	if envelope, ok := event.(telemetry.AuditEnvelope); ok {
		m.envelopes = append(m.envelopes, envelope)
	}
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// LastEnvelope returns the most recently published audit envelope.
func (m *PublisherMock) LastEnvelope() (telemetry.AuditEnvelope, bool) {
	if len(m.envelopes) == 0 {
		return telemetry.AuditEnvelope{}, false
	}
	return m.envelopes[len(m.envelopes)-1], true
}
