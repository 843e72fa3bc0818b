package models

// CharacterChangeDelta is the sparse change set the generation capability may
// attach to a story event. Every field is optional; absent fields leave the
// character untouched and unknown fields in the wire payload are dropped
// during decoding.
type CharacterChangeDelta struct {
	Health     *int         `json:"health,omitempty"`
	Mana       *int         `json:"mana,omitempty"`
	Gold       *int         `json:"gold,omitempty"`
	Experience *int         `json:"experience,omitempty"`
	NewItems   []string     `json:"newItems,omitempty"`
	NewSkills  []SkillGrant `json:"newSkills,omitempty"`
}

// SkillGrant describes a skill awarded by the narrative.
type SkillGrant struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ManaCost    int      `json:"manaCost,omitempty"`
	Damage      *int     `json:"damage,omitempty"`
	Healing     *int     `json:"healing,omitempty"`
	Effects     []string `json:"effects,omitempty"`
}

// IsZero reports whether the delta proposes no change at all.
func (d *CharacterChangeDelta) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Health == nil && d.Mana == nil && d.Gold == nil &&
		d.Experience == nil && len(d.NewItems) == 0 && len(d.NewSkills) == 0
}
