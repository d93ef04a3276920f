package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardbattle/battle-server-go/internal/card"
)

// CardRepository reads and writes the cards table.
type CardRepository struct {
	db *DB
}

func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// LoadCatalog reads every card into an in-memory catalog.
func (r *CardRepository) LoadCatalog(ctx context.Context) (*card.StaticCatalog, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, kind, grade, race, attack, health, archetype,
		       alternative_damage, field_unit_damage, main_character_damage, deck_mill_count,
		       target_count, sacrifice_eligible, energy_removal, health_per_field_energy
		FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	catalog := card.NewStaticCatalog()
	for rows.Next() {
		var (
			row                    CardRow
			eligible               []int32
			id, attack, health     int32
			alt, fieldDmg, mainDmg int32
			mill, count, removal   int32
			perEnergy              int32
		)
		if err := rows.Scan(&id, &row.Name, &row.Kind, &row.Grade, &row.Race, &attack, &health, &row.Archetype,
			&alt, &fieldDmg, &mainDmg, &mill, &count, &eligible, &removal, &perEnergy); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		row.ID, row.Attack, row.Health = int(id), int(attack), int(health)
		row.AlternativeDamage, row.FieldUnitDamage, row.MainCharacterDamage = int(alt), int(fieldDmg), int(mainDmg)
		row.DeckMillCount, row.TargetCount, row.EnergyRemoval = int(mill), int(count), int(removal)
		row.HealthPerFieldEnergy = int(perEnergy)
		row.SacrificeEligible = fromInt32(eligible)

		def, err := row.Definition()
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", row.ID, err)
		}
		catalog.Put(def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	return catalog, nil
}

// UpsertCards writes rows in one transaction.
func (r *CardRepository) UpsertCards(ctx context.Context, cards []CardRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range cards {
		batch.Queue(`
			INSERT INTO cards (id, name, kind, grade, race, attack, health, archetype,
				alternative_damage, field_unit_damage, main_character_damage, deck_mill_count,
				target_count, sacrifice_eligible, energy_removal, health_per_field_energy)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, kind = EXCLUDED.kind, grade = EXCLUDED.grade,
				race = EXCLUDED.race, attack = EXCLUDED.attack, health = EXCLUDED.health,
				archetype = EXCLUDED.archetype, alternative_damage = EXCLUDED.alternative_damage,
				field_unit_damage = EXCLUDED.field_unit_damage,
				main_character_damage = EXCLUDED.main_character_damage,
				deck_mill_count = EXCLUDED.deck_mill_count, target_count = EXCLUDED.target_count,
				sacrifice_eligible = EXCLUDED.sacrifice_eligible,
				energy_removal = EXCLUDED.energy_removal,
				health_per_field_energy = EXCLUDED.health_per_field_energy`,
			c.ID, c.Name, c.Kind, c.Grade, c.Race, c.Attack, c.Health, c.Archetype,
			c.AlternativeDamage, c.FieldUnitDamage, c.MainCharacterDamage, c.DeckMillCount,
			c.TargetCount, toInt32(c.SacrificeEligible), c.EnergyRemoval, c.HealthPerFieldEnergy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert cards: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
