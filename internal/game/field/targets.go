package field

import (
	"slices"
	"strconv"

	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

// TargetRequirement describes the slots an effect must name.
type TargetRequirement struct {
	// Count is the exact number of indices required. A selection never matches a
	// non-positive count.
	Count int
	// Description names the target in rejection messages.
	Description string
}

// TargetValidator checks slot selections against a field store before any mutation.
type TargetValidator struct {
	fields *Store
}

// NewTargetValidator creates a validator reading from fields.
func NewTargetValidator(fields *Store) *TargetValidator {
	return &TargetValidator{fields: fields}
}

// ValidateTarget checks that idx holds a live unit on the owner's field.
func (tv *TargetValidator) ValidateTarget(ownerID int64, idx int, description string) error {
	if !tv.fields.Exists(ownerID, idx) {
		return protocol.WithMetadata(protocol.CodeInvalidTargetIndex,
			description+" slot "+strconv.Itoa(idx)+" is empty",
			map[string]string{"index": strconv.Itoa(idx)})
	}
	return nil
}

// ValidateSelection checks the count first, then that the indices are distinct and each
// one holds a live unit.
func (tv *TargetValidator) ValidateSelection(ownerID int64, indices []int, req TargetRequirement) error {
	if len(indices) == 0 {
		return protocol.New(protocol.CodeTargetCountMismatch, "no target selected")
	}
	if req.Count <= 0 || len(indices) != req.Count {
		return protocol.Newf(protocol.CodeTargetCountMismatch,
			"need exactly %d targets, got %d", req.Count, len(indices))
	}

	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(indices) {
		return protocol.New(protocol.CodeInvalidTargetIndex, "duplicate target index")
	}

	for _, idx := range indices {
		if err := tv.ValidateTarget(ownerID, idx, req.Description); err != nil {
			return err
		}
	}
	return nil
}
