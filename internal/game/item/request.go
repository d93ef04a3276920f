package item

import (
	"strconv"
	"strings"

	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

// Forms carry request fields exactly as they arrive on the wire. Numeric fields are strings
// and are converted by Parse; nothing past Parse sees the raw values.

// TargetDeathForm is a raw conditional-elimination request.
type TargetDeathForm struct {
	SessionToken string
	ItemCardID   string
	TargetIndex  string
}

// TargetDeathRequest targets one opponent unit.
type TargetDeathRequest struct {
	SessionToken string
	ItemCardID   int
	TargetIndex  int
}

// Parse converts the form.
func (f TargetDeathForm) Parse() (TargetDeathRequest, error) {
	cardID, err := parseInt("item_card_id", f.ItemCardID)
	if err != nil {
		return TargetDeathRequest{}, err
	}
	idx, err := parseInt("target_index", f.TargetIndex)
	if err != nil {
		return TargetDeathRequest{}, err
	}
	return TargetDeathRequest{SessionToken: f.SessionToken, ItemCardID: cardID, TargetIndex: idx}, nil
}

// CatastrophicDamageForm is a raw area-damage request.
type CatastrophicDamageForm struct {
	SessionToken string
	ItemCardID   string
}

// CatastrophicDamageRequest hits the whole opponent board.
type CatastrophicDamageRequest struct {
	SessionToken string
	ItemCardID   int
}

// Parse converts the form.
func (f CatastrophicDamageForm) Parse() (CatastrophicDamageRequest, error) {
	cardID, err := parseInt("item_card_id", f.ItemCardID)
	if err != nil {
		return CatastrophicDamageRequest{}, err
	}
	return CatastrophicDamageRequest{SessionToken: f.SessionToken, ItemCardID: cardID}, nil
}

// SacrificeMultiTargetForm is a raw sacrifice request.
type SacrificeMultiTargetForm struct {
	SessionToken       string
	ItemCardID         string
	SacrificeUnitIndex string
	TargetIndices      []string
}

// SacrificeMultiTargetRequest sacrifices one own unit to damage several opponent units.
type SacrificeMultiTargetRequest struct {
	SessionToken       string
	ItemCardID         int
	SacrificeUnitIndex int
	TargetIndices      []int
}

// Parse converts the form. Target order is kept.
func (f SacrificeMultiTargetForm) Parse() (SacrificeMultiTargetRequest, error) {
	cardID, err := parseInt("item_card_id", f.ItemCardID)
	if err != nil {
		return SacrificeMultiTargetRequest{}, err
	}
	sacrifice, err := parseInt("sacrifice_unit_index", f.SacrificeUnitIndex)
	if err != nil {
		return SacrificeMultiTargetRequest{}, err
	}
	targets := make([]int, 0, len(f.TargetIndices))
	for _, raw := range f.TargetIndices {
		idx, err := parseInt("target_indices", raw)
		if err != nil {
			return SacrificeMultiTargetRequest{}, err
		}
		targets = append(targets, idx)
	}
	return SacrificeMultiTargetRequest{
		SessionToken:       f.SessionToken,
		ItemCardID:         cardID,
		SacrificeUnitIndex: sacrifice,
		TargetIndices:      targets,
	}, nil
}

// EnergyRemovalForm is a raw energy-removal request.
type EnergyRemovalForm struct {
	SessionToken string
	ItemCardID   string
	TargetIndex  string
}

// EnergyRemovalRequest targets one opponent unit's attached energy.
type EnergyRemovalRequest struct {
	SessionToken string
	ItemCardID   int
	TargetIndex  int
}

// Parse converts the form.
func (f EnergyRemovalForm) Parse() (EnergyRemovalRequest, error) {
	cardID, err := parseInt("item_card_id", f.ItemCardID)
	if err != nil {
		return EnergyRemovalRequest{}, err
	}
	idx, err := parseInt("target_index", f.TargetIndex)
	if err != nil {
		return EnergyRemovalRequest{}, err
	}
	return EnergyRemovalRequest{SessionToken: f.SessionToken, ItemCardID: cardID, TargetIndex: idx}, nil
}

// FieldEnergyBoostForm is a raw field-energy request.
type FieldEnergyBoostForm struct {
	SessionToken string
	ItemCardID   string
	TargetIndex  string
}

// FieldEnergyBoostRequest reads one of the requester's own units.
type FieldEnergyBoostRequest struct {
	SessionToken string
	ItemCardID   int
	TargetIndex  int
}

// Parse converts the form.
func (f FieldEnergyBoostForm) Parse() (FieldEnergyBoostRequest, error) {
	cardID, err := parseInt("item_card_id", f.ItemCardID)
	if err != nil {
		return FieldEnergyBoostRequest{}, err
	}
	idx, err := parseInt("target_index", f.TargetIndex)
	if err != nil {
		return FieldEnergyBoostRequest{}, err
	}
	return FieldEnergyBoostRequest{SessionToken: f.SessionToken, ItemCardID: cardID, TargetIndex: idx}, nil
}

func parseInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, protocol.WithMetadata(protocol.CodeMalformedInput, field+" is not an integer",
			map[string]string{"field": field, "value": raw})
	}
	return n, nil
}
