package ai

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

// GenerationInput is everything one progression turn gives the generator.
type GenerationInput struct {
	Character  *models.Character
	Stage      int
	History    []models.StoryEvent
	Choice     string
	WorldID    string
	AuxContext *models.NarrativeContext
}

// StoryGenerator produces the next story event for a turn.
type StoryGenerator interface {
	Generate(ctx context.Context, input GenerationInput) (*GeneratedStory, error)
}

type storyGenerator struct {
	client  AIClient
	prompts *PromptBuilder
	model   string
	logger  *zap.Logger
}

// NewStoryGenerator wires the provider client and the prompt builder into the
// generation capability used by the progression service.
func NewStoryGenerator(client AIClient, prompts *PromptBuilder, model string, logger *zap.Logger) StoryGenerator {
	return &storyGenerator{
		client:  client,
		prompts: prompts,
		model:   model,
		logger:  logger.Named("StoryGenerator"),
	}
}

func (g *storyGenerator) Generate(ctx context.Context, input GenerationInput) (*GeneratedStory, error) {
	systemPrompt := g.prompts.BuildSystemPrompt(input.WorldID)
	userInput := g.prompts.BuildUserInput(
		input.Character, input.Stage, input.History, input.Choice, input.AuxContext)

	raw, usage, err := g.client.GenerateText(ctx, systemPrompt, userInput)
	if err != nil {
		return nil, fmt.Errorf("story generation request failed: %w", err)
	}

	story, err := ParseStoryResponse(raw)
	if err != nil {
		aiParseFailuresTotal.With(prometheus.Labels{"model": g.model}).Inc()
		g.logger.Error("Failed to parse AI response",
			zap.String("worldID", input.WorldID),
			zap.Int("stage", input.Stage),
			zap.Int("responseLen", len(raw)),
			zap.Error(err))
		return nil, fmt.Errorf("story generation response invalid: %w", err)
	}

	g.logger.Info("Story event generated",
		zap.String("worldID", input.WorldID),
		zap.Int("stage", input.Stage),
		zap.String("eventType", string(story.EventType)),
		zap.Int("choices", len(story.Choices)),
		zap.Int("totalTokens", usage.TotalTokens))
	return story, nil
}
