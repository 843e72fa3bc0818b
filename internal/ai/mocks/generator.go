package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rpg-server/internal/ai"
)

// Mock StoryGenerator
type StoryGenerator struct {
	mock.Mock
}

func (m *StoryGenerator) Generate(ctx context.Context, input ai.GenerationInput) (*ai.GeneratedStory, error) {
	args := m.Called(ctx, input)
	story, _ := args.Get(0).(*ai.GeneratedStory)
	return story, args.Error(1)
}
