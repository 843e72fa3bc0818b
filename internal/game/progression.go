// Package game owns the character progression rules: how a change delta is
// applied to a character and when leveling triggers. Everything is value
// semantics; persistence belongs to the service layer.
package game

import (
	"time"

	"github.com/google/uuid"

	"rpg-server/internal/models"
	"rpg-server/internal/worlds"
)

// Per-level growth applied on each level-up.
const (
	expPerLevel      = 100
	healthPerLevel   = 20
	manaPerLevel     = 10
	attributePerLevel = 2
)

// RequiredExperience is the experience needed to advance past the given level.
func RequiredExperience(level int) int {
	return level * expPerLevel
}

// ApplyResult carries the updated character plus the records the delta added,
// so the caller can persist exactly what changed.
type ApplyResult struct {
	Character    models.Character
	AddedItems   []models.Item
	AddedSkills  []models.Skill
	LevelsGained int
}

// ApplyDelta applies a change delta to a copy of the character and returns the
// result. Order matters: numeric fields are clamped first, then collections
// are ingested, then the level-up loop runs over the final experience value.
// There are no error conditions; a nil delta returns the character unchanged.
func ApplyDelta(ch models.Character, delta *models.CharacterChangeDelta) ApplyResult {
	ch.Items = append([]models.Item(nil), ch.Items...)
	ch.Skills = append([]models.Skill(nil), ch.Skills...)
	res := ApplyResult{}

	if delta == nil {
		res.Character = ch
		return res
	}

	if delta.Health != nil {
		ch.Health = clamp(*delta.Health, 0, ch.MaxHealth)
	}
	if delta.Mana != nil {
		ch.Mana = clamp(*delta.Mana, 0, ch.MaxMana)
	}
	if delta.Gold != nil {
		ch.Gold = max(*delta.Gold, 0)
	}
	if delta.Experience != nil && *delta.Experience > ch.Experience {
		// Decrease requests are a silent no-op: experience is monotone.
		ch.Experience = *delta.Experience
	}

	now := time.Now().UTC()
	for _, name := range delta.NewItems {
		if name == "" || (&ch).HasItem(name) {
			continue
		}
		item := models.Item{
			ID:          uuid.New(),
			CharacterID: ch.ID,
			Name:        name,
			Quantity:    1,
			CreatedAt:   now,
		}
		ch.Items = append(ch.Items, item)
		res.AddedItems = append(res.AddedItems, item)
	}
	// Skills are not deduplicated: repeated grants stack as separate records.
	for _, grant := range delta.NewSkills {
		if grant.Name == "" {
			continue
		}
		skill := BuildSkill(ch.ID, grant)
		ch.Skills = append(ch.Skills, skill)
		res.AddedSkills = append(res.AddedSkills, skill)
	}

	// Level-up cascade: one large delta can grant several levels. The cost is
	// fixed at the level the delta found the character, so 250 exp at level 1
	// grants two levels (100+100) with 50 left over.
	required := RequiredExperience(ch.Level)
	for required > 0 && ch.Experience >= required {
		ch.Experience -= required
		ch.Level++
		ch.MaxHealth += healthPerLevel
		ch.Health = ch.MaxHealth
		ch.MaxMana += manaPerLevel
		ch.Mana = ch.MaxMana
		ch.Strength += attributePerLevel
		ch.Intelligence += attributePerLevel
		ch.Dexterity += attributePerLevel
		ch.Constitution += attributePerLevel
		res.LevelsGained++
	}

	ch.UpdatedAt = now
	res.Character = ch
	return res
}

// BuildSkill shapes a skill grant into a full record. Effect values missing
// from the grant are resolved from the skill name once, here, and stored.
func BuildSkill(characterID uuid.UUID, grant models.SkillGrant) models.Skill {
	damage, healing := grant.Damage, grant.Healing
	if damage == nil && healing == nil {
		damage, healing = worlds.SkillEffect(grant.Name)
	}
	return models.Skill{
		ID:          uuid.New(),
		CharacterID: characterID,
		Name:        grant.Name,
		Description: grant.Description,
		ManaCost:    grant.ManaCost,
		Damage:      damage,
		Healing:     healing,
		Effects:     grant.Effects,
		CreatedAt:   time.Now().UTC(),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
