package models

import (
	"time"

	"github.com/google/uuid"
)

// Character is the player-owned aggregate root. Items and skills live and die
// with it; GameState is its per-character singleton companion record.
type Character struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Job          string    `json:"job" db:"job"`
	Level        int       `json:"level" db:"level"`
	Health       int       `json:"health" db:"health"`
	MaxHealth    int       `json:"maxHealth" db:"max_health"`
	Mana         int       `json:"mana" db:"mana"`
	MaxMana      int       `json:"maxMana" db:"max_mana"`
	Strength     int       `json:"strength" db:"strength"`
	Intelligence int       `json:"intelligence" db:"intelligence"`
	Dexterity    int       `json:"dexterity" db:"dexterity"`
	Constitution int       `json:"constitution" db:"constitution"`
	Gold         int       `json:"gold" db:"gold"`
	Experience   int       `json:"experience" db:"experience"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	Items  []Item  `json:"items" db:"-"`
	Skills []Skill `json:"skills" db:"-"`
}

// Item is a named possession of a character. Names are unique per character;
// re-acquiring an owned item is a no-op.
type Item struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CharacterID uuid.UUID `json:"characterId" db:"character_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Quantity    int       `json:"quantity" db:"quantity"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Skill is a learned ability. Unlike items, duplicate skill names are
// permitted per character.
type Skill struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CharacterID uuid.UUID `json:"characterId" db:"character_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ManaCost    int       `json:"manaCost" db:"mana_cost"`
	Damage      *int      `json:"damage,omitempty" db:"damage"`
	Healing     *int      `json:"healing,omitempty" db:"healing"`
	Effects     []string  `json:"effects,omitempty" db:"effects"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// HasItem reports whether the character already owns an item with this name.
func (c *Character) HasItem(name string) bool {
	for i := range c.Items {
		if c.Items[i].Name == name {
			return true
		}
	}
	return false
}

// Guest mode sentinel identities. Guest entities are built in memory with
// these fixed IDs and are never written to the durable store.
var (
	GuestUserID      = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	GuestCharacterID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	GuestGameStateID = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// IsGuest reports whether the user ID denotes the ephemeral guest identity.
func IsGuest(userID uuid.UUID) bool {
	return userID == GuestUserID
}
