package worlds

import "rpg-server/internal/models"

// Job identifiers as the clients send them. The dimensional rift worlds use
// the original Korean labels, the cyberpunk world uses English ones.
const (
	JobWarrior = "⚔️ 전사"
	JobMage    = "🔮 마법사"
	JobRogue   = "🗡️ 도적"
	JobPriest  = "✨ 성직자"

	JobNetrunner = "netrunner"
	JobSolo      = "solo"
	JobFixer     = "fixer"
)

// startingItemTable: world -> job -> item names.
var startingItemTable = map[string]map[string][]string{
	models.WorldDimensionalRift: {
		JobWarrior: {"강철 장검", "철제 방패", "사슬 갑옷", "치유 포션 3개"},
		JobMage:    {"참나무 지팡이", "마력의 수정구", "낡은 로브", "마나 포션 3개"},
		JobRogue:   {"쌍단검", "가죽 갑옷", "도둑의 장갑", "연막탄 2개"},
		JobPriest:  {"축복받은 철퇴", "성스러운 문장", "사제복", "치유 포션 5개"},
	},
	models.WorldCyberpunk: {
		JobNetrunner: {"cyberdeck mk.II", "neural link cable", "ICE-breaker suite", "stim pack x3"},
		JobSolo:      {"militech pistol", "subdermal armor", "combat stims x2", "trauma patch"},
		JobFixer:     {"encrypted agent", "holo-disguise kit", "eddies chip (500)", "burner phone x3"},
	},
}

// startingSkillTable: world -> job -> skill names. Effect values (damage /
// healing) are resolved from the name once, at creation time, by SkillEffect.
var startingSkillTable = map[string]map[string][]string{
	models.WorldDimensionalRift: {
		JobWarrior: {"강력한 베기 공격", "방패 올리기"},
		JobMage:    {"화염구 공격", "마나 집중"},
		JobRogue:   {"기습 공격", "그림자 은신"},
		JobPriest:  {"신성한 치유", "축복의 기도"},
	},
	models.WorldCyberpunk: {
		JobNetrunner: {"system shock attack", "quickhack: heal routine"},
		JobSolo:      {"precision strike", "adrenal surge"},
		JobFixer:     {"street deal", "smooth talk"},
	},
}
