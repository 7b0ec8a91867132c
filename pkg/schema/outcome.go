package schema

// Outcome classifies the divergence between a declared table and its
// live counterpart, and therefore the action synchronization takes.
// Exactly one outcome applies per table per reconciliation pass.
type Outcome int

const (
	// AlreadyInSync: declared and live schemas match; nothing to do.
	AlreadyInSync Outcome = iota

	// NewTableCreated: the table did not exist and was (or would be)
	// created fresh.
	NewTableCreated

	// NewColumnsAdded: every divergence is an addable declared column.
	NewColumnsAdded

	// OldColumnsRemoved: the live table carries excess columns and
	// nothing else diverges.
	OldColumnsRemoved

	// NewColumnsAddedAndOldColumnsRemoved combines the two safe cases.
	NewColumnsAddedAndOldColumnsRemoved

	// DroppedAndRecreated: a structural incompatibility or an unsafe
	// addition forces a full rebuild. This outcome strictly dominates
	// the others in risk and is never weakened.
	DroppedAndRecreated
)

var outcomeNames = map[Outcome]string{
	AlreadyInSync:                       "already in sync",
	NewTableCreated:                     "new table created",
	NewColumnsAdded:                     "new columns added",
	OldColumnsRemoved:                   "old columns removed",
	NewColumnsAddedAndOldColumnsRemoved: "new columns added and old columns removed",
	DroppedAndRecreated:                 "dropped and recreated",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}
