// Package worlds holds the per-world configuration tables: stat mapping rules,
// starting kits and fallback story content. Everything here is pure lookup;
// unknown worlds and jobs resolve to defaults, never to errors.
package worlds

import (
	"encoding/json"

	"rpg-server/internal/models"
)

// CanonicalStats is the world-independent stat set every character starts
// from, whatever shape the client sent.
type CanonicalStats struct {
	Health       int
	Mana         int
	Strength     int
	Intelligence int
	Dexterity    int
	Constitution int
}

// RawStats is the loosely-typed attribute payload from character creation.
// Values arrive as JSON numbers; anything non-numeric falls back to the
// world's default for that attribute.
type RawStats map[string]any

func (r RawStats) number(key string, def int) int {
	v, ok := r[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	return def
}

// MapStatsToWorld maps raw world-specific attributes onto the canonical stat
// set. Total function: missing or malformed fields take the stated defaults.
func MapStatsToWorld(raw RawStats, worldID string) CanonicalStats {
	if raw == nil {
		raw = RawStats{}
	}

	if worldID == models.WorldCyberpunk {
		body := raw.number("body", 100)
		technical := raw.number("technical", 50)
		reflex := raw.number("reflex", 50)
		cool := raw.number("cool", 50)
		reputation := raw.number("reputation", 50)
		return CanonicalStats{
			Health:       body,
			Mana:         raw.number("neural", 50),
			Strength:     body / 5,
			Intelligence: technical / 4,
			Dexterity:    reflex / 4,
			Constitution: (cool + reputation) / 8,
		}
	}

	// Default path: pass-through with per-field fallbacks.
	return CanonicalStats{
		Health:       raw.number("health", 100),
		Mana:         raw.number("mana", 50),
		Strength:     raw.number("strength", 10),
		Intelligence: raw.number("intelligence", 10),
		Dexterity:    raw.number("dexterity", 10),
		Constitution: raw.number("constitution", 10),
	}
}

// StartingItems returns the item names a new character of this job starts
// with. Unknown (job, world) pairs return an empty slice.
func StartingItems(job, worldID string) []string {
	if kit, ok := startingItemTable[worldID][job]; ok {
		out := make([]string, len(kit))
		copy(out, kit)
		return out
	}
	return []string{}
}

// StartingSkills returns the skill names a new character of this job starts
// with. Unknown (job, world) pairs return an empty slice.
func StartingSkills(job, worldID string) []string {
	if kit, ok := startingSkillTable[worldID][job]; ok {
		out := make([]string, len(kit))
		copy(out, kit)
		return out
	}
	return []string{}
}
