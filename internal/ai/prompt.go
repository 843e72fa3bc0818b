package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

const responseFormatInstruction = `You must answer with a single JSON object and nothing else:
{
  "content": "the next story passage",
  "choices": [{"id": "choice_1", "text": "..."}, {"id": "choice_2", "text": "..."}],
  "eventType": "narrative|combat|treasure|shop|rest",
  "enemyId": "optional enemy identifier for combat events",
  "characterChanges": {
    "health": 0, "mana": 0, "gold": 0, "experience": 0,
    "newItems": ["item name"],
    "newSkills": [{"name": "...", "description": "...", "manaCost": 0, "damage": 0, "healing": 0}]
  }
}
Offer two to four choices. Omit characterChanges when nothing changed.
Write the story content in the same language as the previous story events.`

var worldFlavor = map[string]string{
	models.WorldDimensionalRift: "The setting is a Korean fantasy world of dimensional rifts, dungeons and classic RPG adventuring.",
	models.WorldCyberpunk:       "The setting is the neon megacity of 2187: corporations, netrunners, cybernetic implants and street-level intrigue.",
}

// PromptBuilder assembles the system prompt and the user input for one turn,
// trimming older history to fit the token budget.
type PromptBuilder struct {
	model        string
	historyBudget int
	logger       *zap.Logger
}

// NewPromptBuilder creates a prompt builder for the given model. The budget
// bounds how many tokens of story history one request may carry.
func NewPromptBuilder(model string, historyBudget int, logger *zap.Logger) *PromptBuilder {
	return &PromptBuilder{
		model:        model,
		historyBudget: historyBudget,
		logger:       logger.Named("PromptBuilder"),
	}
}

// BuildSystemPrompt renders the world-flavored game master instructions.
func (b *PromptBuilder) BuildSystemPrompt(worldID string) string {
	flavor, ok := worldFlavor[worldID]
	if !ok {
		flavor = worldFlavor[models.WorldDimensionalRift]
	}
	var sb strings.Builder
	sb.WriteString("You are the game master of a turn-based narrative RPG. ")
	sb.WriteString(flavor)
	sb.WriteString("\nAdvance the story one stage per request, reacting to the player's latest choice.\n\n")
	sb.WriteString(responseFormatInstruction)
	return sb.String()
}

// BuildUserInput renders the character snapshot, the trimmed history, the
// latest choice and the opaque aux context into the user message.
func (b *PromptBuilder) BuildUserInput(
	ch *models.Character,
	stage int,
	history []models.StoryEvent,
	choice string,
	auxContext *models.NarrativeContext,
) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Character: %s, %s, level %d\n", ch.Name, ch.Job, ch.Level)
	fmt.Fprintf(&sb, "Health %d/%d, Mana %d/%d, Gold %d, Experience %d\n",
		ch.Health, ch.MaxHealth, ch.Mana, ch.MaxMana, ch.Gold, ch.Experience)
	fmt.Fprintf(&sb, "STR %d INT %d DEX %d CON %d\n",
		ch.Strength, ch.Intelligence, ch.Dexterity, ch.Constitution)
	if len(ch.Items) > 0 {
		names := make([]string, 0, len(ch.Items))
		for _, item := range ch.Items {
			names = append(names, item.Name)
		}
		fmt.Fprintf(&sb, "Items: %s\n", strings.Join(names, ", "))
	}
	if len(ch.Skills) > 0 {
		names := make([]string, 0, len(ch.Skills))
		for _, sk := range ch.Skills {
			names = append(names, sk.Name)
		}
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&sb, "\nCurrent stage: %d\n", stage)

	if trimmed := b.trimHistory(history); len(trimmed) > 0 {
		sb.WriteString("\nStory so far:\n")
		for i := range trimmed {
			ev := &trimmed[i]
			fmt.Fprintf(&sb, "[stage %d] %s\n", ev.StageNumber, ev.Content)
			if ev.SelectedChoice != nil {
				if c := ev.ChoiceByID(*ev.SelectedChoice); c != nil {
					fmt.Fprintf(&sb, "(player chose: %s)\n", c.Text)
				}
			}
		}
	}

	if auxContext != nil {
		if raw, err := json.Marshal(auxContext); err == nil && string(raw) != "{}" {
			fmt.Fprintf(&sb, "\nAdditional context: %s\n", raw)
		}
	}

	if choice != "" {
		fmt.Fprintf(&sb, "\nThe player's latest choice: %s\n", choice)
	} else {
		sb.WriteString("\nThis is the beginning of the adventure. Open the story.\n")
	}
	sb.WriteString("Generate the next story event.")
	return sb.String()
}

// trimHistory drops the oldest events until the remainder fits the token
// budget. The most recent events always survive.
func (b *PromptBuilder) trimHistory(history []models.StoryEvent) []models.StoryEvent {
	if len(history) == 0 || b.historyBudget <= 0 {
		return history
	}

	enc, err := tiktoken.EncodingForModel(b.model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			b.logger.Warn("No tokenizer available, keeping full history", zap.Error(err))
			return history
		}
	}

	total := 0
	// Walk backwards so the newest events are kept.
	for i := len(history) - 1; i >= 0; i-- {
		total += len(enc.Encode(history[i].Content, nil, nil))
		if total > b.historyBudget {
			b.logger.Debug("History trimmed to token budget",
				zap.Int("kept", len(history)-1-i), zap.Int("dropped", i+1))
			return history[i+1:]
		}
	}
	return history
}
