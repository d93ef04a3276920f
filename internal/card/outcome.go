package card

// OutcomeKind selects how an elimination effect lands on its target.
type OutcomeKind int

const (
	// OutcomeInstantDeath removes the target without health accounting.
	OutcomeInstantDeath OutcomeKind = iota
	// OutcomeDamage deals Damage and then applies the standard death rule.
	OutcomeDamage
)

// Outcome is the effect chosen for one target.
type Outcome struct {
	Kind   OutcomeKind
	Damage int
}

// InstantDeath returns an instant-death outcome.
func InstantDeath() Outcome {
	return Outcome{Kind: OutcomeInstantDeath}
}

// Damage returns a damage outcome.
func Damage(amount int) Outcome {
	return Outcome{Kind: OutcomeDamage, Damage: amount}
}

// ResolveElimination picks the outcome of an instant-death effect against a unit of the
// given grade. Top-grade units are immune and take the alternative damage instead.
func ResolveElimination(target Grade, alternativeDamage int) Outcome {
	if target.AtLeast(TopGrade) {
		return Damage(alternativeDamage)
	}
	return InstantDeath()
}

// IsLockedUntil reports whether a card of this grade is still locked in the given round.
func IsLockedUntil(g Grade, round, unlockRound int) bool {
	return g.AtLeast(TopGrade) && round < unlockRound
}
