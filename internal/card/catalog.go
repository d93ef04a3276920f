package card

import (
	"fmt"
	"slices"
	"sync"
)

// NoEffect marks an optional numeric effect parameter as absent.
const NoEffect = -1

// Archetype identifies the resolution algorithm an item card uses.
type Archetype string

const (
	ArchetypeNone             Archetype = ""
	ArchetypeTargetDeath      Archetype = "TARGET_DEATH"
	ArchetypeCatastrophic     Archetype = "CATASTROPHIC_DAMAGE"
	ArchetypeSacrificeTargets Archetype = "SACRIFICE_MULTI_TARGET"
	ArchetypeEnergyRemoval    Archetype = "ENERGY_REMOVAL"
	ArchetypeFieldEnergyBoost Archetype = "FIELD_ENERGY_BOOST"
)

// ParseArchetype validates an archetype label read from catalog storage.
func ParseArchetype(s string) (Archetype, error) {
	switch a := Archetype(s); a {
	case ArchetypeNone, ArchetypeTargetDeath, ArchetypeCatastrophic,
		ArchetypeSacrificeTargets, ArchetypeEnergyRemoval, ArchetypeFieldEnergyBoost:
		return a, nil
	}
	return ArchetypeNone, fmt.Errorf("unknown item archetype %q", s)
}

// Definition holds the static stats of one card.
type Definition struct {
	ID     int
	Name   string
	Kind   Kind
	Grade  Grade
	Race   Race
	Attack int
	Health int

	// Item is set for item cards only.
	Item *ItemEffectSummary
}

// ItemEffectSummary is the resolved effect of an item card. Fields that do not apply to the
// card's archetype hold NoEffect (or are empty).
type ItemEffectSummary struct {
	Archetype Archetype

	// AlternativeDamage is dealt when the primary effect cannot apply to its target.
	AlternativeDamage int

	// Catastrophic damage.
	FieldUnitDamage     int
	MainCharacterDamage int
	DeckMillCount       int

	// Sacrifice for multiple targets.
	TargetCount       int
	SacrificeEligible []int

	// Energy removal.
	EnergyRemoval int

	// Field energy boost: one field energy per this many health points.
	HealthPerFieldEnergy int
}

// CanSacrifice reports whether the unit card id may be offered as a sacrifice.
func (s ItemEffectSummary) CanSacrifice(unitCardID int) bool {
	return slices.Contains(s.SacrificeEligible, unitCardID)
}

// DamagesMainCharacter reports whether the area effect also hits the main character.
func (s ItemEffectSummary) DamagesMainCharacter() bool {
	return s.MainCharacterDamage != NoEffect
}

// MillsDeck reports whether the area effect also moves deck cards to the lost zone.
func (s ItemEffectSummary) MillsDeck() bool {
	return s.DeckMillCount != NoEffect
}

// FieldEnergyFor returns how much field energy a unit with the given health yields.
func (s ItemEffectSummary) FieldEnergyFor(health int) int {
	if s.HealthPerFieldEnergy <= 0 || health <= 0 {
		return 0
	}
	return health / s.HealthPerFieldEnergy
}

func (s ItemEffectSummary) clone() ItemEffectSummary {
	s.SacrificeEligible = slices.Clone(s.SacrificeEligible)
	return s
}

// Catalog resolves card ids to static card data. Implementations never mutate match state
// and must be safe for concurrent use.
type Catalog interface {
	// Card returns the definition of a card id.
	Card(id int) (Definition, bool)
	// ItemEffect returns the effect summary of an item card id.
	ItemEffect(id int) (ItemEffectSummary, bool)
}

// StaticCatalog is an in-memory Catalog.
type StaticCatalog struct {
	mu    sync.RWMutex
	cards map[int]Definition
}

// NewStaticCatalog creates a catalog holding the given definitions.
func NewStaticCatalog(defs ...Definition) *StaticCatalog {
	c := &StaticCatalog{cards: make(map[int]Definition, len(defs))}
	for _, def := range defs {
		c.cards[def.ID] = def
	}
	return c
}

// Put adds or replaces a definition.
func (c *StaticCatalog) Put(def Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[def.ID] = def
}

// Len returns the number of definitions.
func (c *StaticCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}

// Card implements Catalog.
func (c *StaticCatalog) Card(id int) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.cards[id]
	if ok && def.Item != nil {
		item := def.Item.clone()
		def.Item = &item
	}
	return def, ok
}

// ItemEffect implements Catalog. A fresh summary is returned on every call.
func (c *StaticCatalog) ItemEffect(id int) (ItemEffectSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.cards[id]
	if !ok || def.Kind != KindItem || def.Item == nil {
		return ItemEffectSummary{}, false
	}
	return def.Item.clone(), true
}
