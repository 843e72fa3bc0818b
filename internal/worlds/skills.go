package worlds

import "strings"

// Default effect magnitudes for skills granted by name only.
const (
	DefaultSkillDamage  = 10
	DefaultSkillHealing = 15
)

// Substrings marking a skill name as an attack or a heal. The effect kind is
// resolved here exactly once, when the skill record is created, and stored on
// the record; nothing downstream re-infers from the name.
var (
	attackMarkers = []string{"공격", "베기", "강타", "일격", "attack", "strike", "slash", "shock"}
	healMarkers   = []string{"치유", "회복", "heal", "restore"}
)

// SkillEffect resolves the default damage/healing values for a skill name.
// Either return value may be nil when the name carries no such concept.
func SkillEffect(name string) (damage *int, healing *int) {
	lower := strings.ToLower(name)
	for _, m := range attackMarkers {
		if strings.Contains(lower, m) {
			d := DefaultSkillDamage
			damage = &d
			break
		}
	}
	for _, m := range healMarkers {
		if strings.Contains(lower, m) {
			h := DefaultSkillHealing
			healing = &h
			break
		}
	}
	return damage, healing
}
