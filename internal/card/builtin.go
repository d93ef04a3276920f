package card

// EnergyCardID is the basic energy card. Decks may hold any number of copies.
const EnergyCardID = 93

// Builtin returns the catalog shipped with the server. It is used when no card table is
// configured and by tests.
func Builtin() *StaticCatalog {
	return NewStaticCatalog(
		Definition{ID: EnergyCardID, Name: "Basic Energy", Kind: KindEnergy},

		Definition{ID: 32, Name: "Skeleton Soldier", Kind: KindUnit, Grade: GradeCommon, Race: RaceUndead, Attack: 5, Health: 10},
		Definition{ID: 31, Name: "Ghoul", Kind: KindUnit, Grade: GradeUncommon, Race: RaceUndead, Attack: 10, Health: 15},
		Definition{ID: 26, Name: "Village Guard", Kind: KindUnit, Grade: GradeCommon, Race: RaceHuman, Attack: 5, Health: 20},
		Definition{ID: 27, Name: "Elder Trent", Kind: KindUnit, Grade: GradeLegend, Race: RaceTrent, Attack: 15, Health: 30},
		Definition{ID: 19, Name: "Death Knight", Kind: KindUnit, Grade: GradeHero, Race: RaceUndead, Attack: 20, Health: 20},
		Definition{ID: 36, Name: "Lich Sovereign", Kind: KindUnit, Grade: GradeMythical, Race: RaceUndead, Attack: 30, Health: 40},

		Definition{ID: 2, Name: "Field of Death", Kind: KindSupport, Grade: GradeUncommon},
		Definition{ID: 30, Name: "Bone Shield", Kind: KindTool, Grade: GradeCommon},

		Definition{ID: 8, Name: "Death Sentence", Kind: KindItem, Grade: GradeHero, Item: &ItemEffectSummary{
			Archetype:            ArchetypeTargetDeath,
			AlternativeDamage:    15,
			FieldUnitDamage:      NoEffect,
			MainCharacterDamage:  NoEffect,
			DeckMillCount:        NoEffect,
			EnergyRemoval:        NoEffect,
			HealthPerFieldEnergy: NoEffect,
		}},
		Definition{ID: 9, Name: "Judgement of the Abyss", Kind: KindItem, Grade: GradeMythical, Item: &ItemEffectSummary{
			Archetype:            ArchetypeTargetDeath,
			AlternativeDamage:    25,
			FieldUnitDamage:      NoEffect,
			MainCharacterDamage:  NoEffect,
			DeckMillCount:        NoEffect,
			EnergyRemoval:        NoEffect,
			HealthPerFieldEnergy: NoEffect,
		}},
		Definition{ID: 20, Name: "Corpse Explosion", Kind: KindItem, Grade: GradeLegend, Item: &ItemEffectSummary{
			Archetype:            ArchetypeCatastrophic,
			AlternativeDamage:    NoEffect,
			FieldUnitDamage:      10,
			MainCharacterDamage:  20,
			DeckMillCount:        1,
			EnergyRemoval:        NoEffect,
			HealthPerFieldEnergy: NoEffect,
		}},
		Definition{ID: 21, Name: "Plague Mist", Kind: KindItem, Grade: GradeUncommon, Item: &ItemEffectSummary{
			Archetype:            ArchetypeCatastrophic,
			AlternativeDamage:    NoEffect,
			FieldUnitDamage:      5,
			MainCharacterDamage:  NoEffect,
			DeckMillCount:        NoEffect,
			EnergyRemoval:        NoEffect,
			HealthPerFieldEnergy: NoEffect,
		}},
		Definition{ID: 25, Name: "Sacrificial Offering", Kind: KindItem, Grade: GradeHero, Item: &ItemEffectSummary{
			Archetype:            ArchetypeSacrificeTargets,
			AlternativeDamage:    NoEffect,
			FieldUnitDamage:      NoEffect,
			MainCharacterDamage:  NoEffect,
			DeckMillCount:        NoEffect,
			TargetCount:          2,
			SacrificeEligible:    []int{32, 31, 19},
			EnergyRemoval:        NoEffect,
			HealthPerFieldEnergy: NoEffect,
		}},
		Definition{ID: 33, Name: "Energy Burn", Kind: KindItem, Grade: GradeUncommon, Item: &ItemEffectSummary{
			Archetype:            ArchetypeEnergyRemoval,
			AlternativeDamage:    10,
			FieldUnitDamage:      NoEffect,
			MainCharacterDamage:  NoEffect,
			DeckMillCount:        NoEffect,
			EnergyRemoval:        2,
			HealthPerFieldEnergy: NoEffect,
		}},
		Definition{ID: 35, Name: "Soul Harvest", Kind: KindItem, Grade: GradeHero, Item: &ItemEffectSummary{
			Archetype:            ArchetypeFieldEnergyBoost,
			AlternativeDamage:    NoEffect,
			FieldUnitDamage:      NoEffect,
			MainCharacterDamage:  NoEffect,
			DeckMillCount:        NoEffect,
			EnergyRemoval:        NoEffect,
			HealthPerFieldEnergy: 5,
		}},
	)
}
