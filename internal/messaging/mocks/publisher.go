package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rpg-server/internal/models"
)

// Mock ClientUpdatePublisher
type ClientUpdatePublisher struct {
	mock.Mock
}

func (m *ClientUpdatePublisher) PublishClientUpdate(ctx context.Context, payload models.ClientUpdate) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
