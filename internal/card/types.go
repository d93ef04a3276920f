package card

import (
	"fmt"
	"strings"
)

// Kind is the category a card belongs to.
type Kind int

const (
	KindUnit Kind = iota
	KindItem
	KindSupport
	KindEnergy
	KindTool
)

var kindNames = map[Kind]string{
	KindUnit:    "UNIT",
	KindItem:    "ITEM",
	KindSupport: "SUPPORT",
	KindEnergy:  "ENERGY",
	KindTool:    "TOOL",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// Grade is the rarity tier of a card. Grades are ordered; Mythical is the top tier.
type Grade int

const (
	GradeCommon Grade = iota
	GradeUncommon
	GradeHero
	GradeLegend
	GradeMythical
)

// TopGrade is the highest rarity tier. Units of this grade are immune to plain instant
// death and cards of this grade are locked until the unlock round.
const TopGrade = GradeMythical

var gradeNames = map[Grade]string{
	GradeCommon:   "COMMON",
	GradeUncommon: "UNCOMMON",
	GradeHero:     "HERO",
	GradeLegend:   "LEGEND",
	GradeMythical: "MYTHICAL",
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("GRADE_%d", int(g))
}

// AtLeast reports whether g is the same tier as other or above it.
func (g Grade) AtLeast(other Grade) bool {
	return g >= other
}

// Race is the tribe of a unit. It also keys energy attachment.
type Race int

const (
	RaceNone Race = iota
	RaceUndead
	RaceHuman
	RaceTrent
	RaceAngel
	RaceMachine
	RaceChaos
)

var raceNames = map[Race]string{
	RaceNone:    "NONE",
	RaceUndead:  "UNDEAD",
	RaceHuman:   "HUMAN",
	RaceTrent:   "TRENT",
	RaceAngel:   "ANGEL",
	RaceMachine: "MACHINE",
	RaceChaos:   "CHAOS",
}

func (r Race) String() string {
	if name, ok := raceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RACE_%d", int(r))
}

// ParseKind converts a catalog label such as "item" into a Kind.
func ParseKind(s string) (Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == upper {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown card kind %q", s)
}

// ParseGrade converts a catalog label such as "mythical" into a Grade.
func ParseGrade(s string) (Grade, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for g, name := range gradeNames {
		if name == upper {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown card grade %q", s)
}

// ParseRace converts a catalog label such as "undead" into a Race. Empty means RaceNone.
func ParseRace(s string) (Race, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "" {
		return RaceNone, nil
	}
	for r, name := range raceNames {
		if name == upper {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown card race %q", s)
}
