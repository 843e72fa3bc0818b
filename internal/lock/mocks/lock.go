package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock GenerationLock
type GenerationLock struct {
	mock.Mock
}

func (m *GenerationLock) Acquire(ctx context.Context, characterID uuid.UUID) (bool, error) {
	args := m.Called(ctx, characterID)
	return args.Bool(0), args.Error(1)
}

func (m *GenerationLock) Release(ctx context.Context, characterID uuid.UUID) error {
	args := m.Called(ctx, characterID)
	return args.Error(0)
}
