package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg-server/internal/models"
)

func TestParseStoryResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		raw := `{
			"content": "당신은 어두운 동굴에 들어섰다.",
			"choices": [
				{"id": "choice_1", "text": "앞으로 나아간다"},
				{"id": "choice_2", "text": "되돌아간다"}
			],
			"eventType": "narrative"
		}`
		story, err := ParseStoryResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, "당신은 어두운 동굴에 들어섰다.", story.Content)
		assert.Len(t, story.Choices, 2)
		assert.Equal(t, models.EventTypeNarrative, story.EventType)
		assert.Nil(t, story.EnemyID)
		assert.Nil(t, story.CharacterChanges)
	})

	t.Run("markdown fenced JSON", func(t *testing.T) {
		raw := "Here is the next event:\n```json\n{\"content\": \"a story\", \"choices\": [{\"id\": \"c1\", \"text\": \"go\"}]}\n```"
		story, err := ParseStoryResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, "a story", story.Content)
		assert.Len(t, story.Choices, 1)
	})

	t.Run("unknown fields ignored, missing defaulted", func(t *testing.T) {
		raw := `{"content": "x", "mood": "dark", "difficulty": 7}`
		story, err := ParseStoryResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, "x", story.Content)
		assert.Empty(t, story.Choices)
		assert.Equal(t, models.EventTypeNarrative, story.EventType)
	})

	t.Run("invalid event type falls back to narrative", func(t *testing.T) {
		raw := `{"content": "x", "eventType": "boss_battle"}`
		story, err := ParseStoryResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, models.EventTypeNarrative, story.EventType)
	})

	t.Run("enemy id only kept for combat", func(t *testing.T) {
		combat, err := ParseStoryResponse(`{"content": "fight", "eventType": "combat", "enemyId": "goblin_1"}`)
		require.NoError(t, err)
		require.NotNil(t, combat.EnemyID)
		assert.Equal(t, "goblin_1", *combat.EnemyID)

		narrative, err := ParseStoryResponse(`{"content": "walk", "eventType": "narrative", "enemyId": "goblin_1"}`)
		require.NoError(t, err)
		assert.Nil(t, narrative.EnemyID)
	})

	t.Run("character changes", func(t *testing.T) {
		raw := `{
			"content": "treasure!",
			"eventType": "treasure",
			"characterChanges": {
				"gold": 150,
				"experience": 40,
				"newItems": ["낡은 지도"],
				"newSkills": [{"name": "화염구", "manaCost": 10, "damage": 25}]
			}
		}`
		story, err := ParseStoryResponse(raw)
		require.NoError(t, err)
		require.NotNil(t, story.CharacterChanges)
		require.NotNil(t, story.CharacterChanges.Gold)
		assert.Equal(t, 150, *story.CharacterChanges.Gold)
		assert.Equal(t, []string{"낡은 지도"}, story.CharacterChanges.NewItems)
		require.Len(t, story.CharacterChanges.NewSkills, 1)
		require.NotNil(t, story.CharacterChanges.NewSkills[0].Damage)
		assert.Equal(t, 25, *story.CharacterChanges.NewSkills[0].Damage)
	})

	t.Run("empty delta dropped", func(t *testing.T) {
		story, err := ParseStoryResponse(`{"content": "x", "characterChanges": {}}`)
		require.NoError(t, err)
		assert.Nil(t, story.CharacterChanges)
	})

	t.Run("choice normalization", func(t *testing.T) {
		raw := `{"content": "x", "choices": [{"id": "", "text": "first"}, {"id": "c", "text": "  "}, {"text": "second"}]}`
		story, err := ParseStoryResponse(raw)
		require.NoError(t, err)
		require.Len(t, story.Choices, 2)
		assert.Equal(t, "choice_1", story.Choices[0].ID)
		assert.Equal(t, "choice_2", story.Choices[1].ID)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := ParseStoryResponse("I cannot continue this story.")
		assert.ErrorIs(t, err, ErrUnparsableResponse)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := ParseStoryResponse(`{"content": "  ", "choices": []}`)
		assert.ErrorIs(t, err, ErrUnparsableResponse)
	})
}
