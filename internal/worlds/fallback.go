package worlds

import "rpg-server/internal/models"

// FallbackStory is the canned narrative served when the generation capability
// is unavailable in guest mode. Serving it is a success path, not an error.
type FallbackStory struct {
	Content   string
	Choices   []models.StoryChoice
	EventType models.StoryEventType
}

var fallbackStories = map[string]FallbackStory{
	models.WorldDimensionalRift: {
		Content: "차원의 균열이 불안정하게 일렁인다. 낡은 석조 복도 끝에서 희미한 빛이 새어 나오고, " +
			"어디선가 낮은 울음소리가 벽을 타고 흘러온다. 발밑의 먼지 위에는 최근에 지나간 듯한 발자국이 남아 있다.",
		Choices: []models.StoryChoice{
			{ID: "1", Text: "빛이 새어 나오는 복도 끝으로 조심스럽게 나아간다"},
			{ID: "2", Text: "울음소리의 정체를 따라가 본다"},
			{ID: "3", Text: "발자국을 살펴보며 흔적을 추적한다"},
		},
		EventType: models.EventTypeNarrative,
	},
	models.WorldCyberpunk: {
		Content: "네온 간판이 비에 젖은 골목을 물들인다. 당신의 뉴럴 링크에 수신자 불명의 메시지가 도착한다: " +
			"'미드나잇 마켓, 2시. 혼자 와라.' 골목 건너편에서 낯선 드론 하나가 당신을 스캔하고 지나간다.",
		Choices: []models.StoryChoice{
			{ID: "1", Text: "미드나잇 마켓으로 향한다"},
			{ID: "2", Text: "드론을 추적해 발신자를 역추적한다"},
			{ID: "3", Text: "메시지를 무시하고 단골 바로 숨어든다"},
		},
		EventType: models.EventTypeNarrative,
	},
}

// FallbackFor returns the canned story for the world. Worlds without bespoke
// fallback content reuse the dimensional rift story.
func FallbackFor(worldID string) FallbackStory {
	if s, ok := fallbackStories[worldID]; ok {
		return s
	}
	return fallbackStories[models.WorldDimensionalRift]
}
