package admission

// Decision is the outcome of an admission check.
type Decision int

const (
	// DecisionAdmit means the statement is novel and the cache has room.
	DecisionAdmit Decision = iota
	// DecisionPresent means the statement was explained recently.
	DecisionPresent
	// DecisionFull means the statement is novel but the cache is full.
	DecisionFull
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionAdmit:
		return "admit"
	case DecisionPresent:
		return "present"
	case DecisionFull:
		return "full"
	default:
		return "unknown"
	}
}

// Admitted reports whether the caller should run the explain plan.
func (d Decision) Admitted() bool {
	return d == DecisionAdmit
}
