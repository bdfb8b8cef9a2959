package domain

const (
	// EndNode is the sentinel target that marks the end of a section walk.
	EndNode = "$end"

	// DefaultAffirmative is the token that opens a gate's follow-up questions.
	DefaultAffirmative = "SIM"
	// DefaultNegative is the token that takes a gate's negative branch.
	DefaultNegative = "NÃO"
)
