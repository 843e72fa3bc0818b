package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rpg-server/internal/models"
)

// ErrUnparsableResponse marks a model reply with no usable JSON object.
var ErrUnparsableResponse = errors.New("unparsable ai response")

// GeneratedStory is the parsed, normalized model reply for one turn.
type GeneratedStory struct {
	Content          string
	Choices          []models.StoryChoice
	EventType        models.StoryEventType
	EnemyID          *string
	CharacterChanges *models.CharacterChangeDelta
}

// wire shape of the model reply. Unknown fields are dropped by encoding/json.
type storyResponse struct {
	Content          string                       `json:"content"`
	Choices          []models.StoryChoice         `json:"choices"`
	EventType        string                       `json:"eventType"`
	EnemyID          *string                      `json:"enemyId"`
	CharacterChanges *models.CharacterChangeDelta `json:"characterChanges"`
}

var validEventTypes = map[models.StoryEventType]bool{
	models.EventTypeNarrative: true,
	models.EventTypeCombat:    true,
	models.EventTypeTreasure:  true,
	models.EventTypeShop:      true,
	models.EventTypeRest:      true,
}

// ParseStoryResponse extracts the story JSON from the raw model reply.
// Models often wrap the object in markdown fences or prose; the parser takes
// the outermost {...} span. Missing fields get defaults, a missing content is
// the one fatal omission.
func ParseStoryResponse(raw string) (*GeneratedStory, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrUnparsableResponse)
	}

	var resp storyResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUnparsableResponse)
	}

	story := &GeneratedStory{
		Content:          strings.TrimSpace(resp.Content),
		Choices:          normalizeChoices(resp.Choices),
		EventType:        models.StoryEventType(strings.ToLower(strings.TrimSpace(resp.EventType))),
		EnemyID:          resp.EnemyID,
		CharacterChanges: resp.CharacterChanges,
	}
	if !validEventTypes[story.EventType] {
		story.EventType = models.EventTypeNarrative
	}
	if story.EventType != models.EventTypeCombat {
		story.EnemyID = nil
	}
	if story.CharacterChanges.IsZero() {
		story.CharacterChanges = nil
	}
	return story, nil
}

// normalizeChoices drops empty entries and backfills missing ids.
func normalizeChoices(choices []models.StoryChoice) []models.StoryChoice {
	out := make([]models.StoryChoice, 0, len(choices))
	for _, c := range choices {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}
		if strings.TrimSpace(c.ID) == "" {
			c.ID = fmt.Sprintf("choice_%d", len(out)+1)
		}
		out = append(out, c)
	}
	return out
}

// extractJSONObject returns the outermost {...} span of s, or "".
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
