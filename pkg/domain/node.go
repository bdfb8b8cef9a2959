package domain

// BranchKind defines how a node resolves its successor once answered.
type BranchKind string

const (
	// BranchLinear always advances to the declared (or implicit) next node.
	BranchLinear BranchKind = "linear"
	// BranchGate accepts only the affirmative/negative tokens and branches on them.
	BranchGate BranchKind = "gate"
)

// QuestionNode represents one step of a section.
// It is immutable once the graph is built.
type QuestionNode struct {
	// ID is hierarchical and unique across the whole interview (e.g. "1.9.1").
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Prompt is the question shown to the user.
	Prompt string `json:"prompt" yaml:"prompt" mapstructure:"prompt"`

	// Rules are evaluated in order against the trimmed answer.
	Rules []Rule `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`

	// Branch defaults to BranchLinear, or BranchGate when Gate is set.
	Branch BranchKind `json:"branch,omitempty" yaml:"branch,omitempty" mapstructure:"branch"`

	// Next overrides the implicit successor of a linear main node.
	// It may name a later main node of the same section, or EndNode.
	Next string `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`

	// Gate holds the branch configuration when Branch == BranchGate.
	Gate *Gate `json:"gate,omitempty" yaml:"gate,omitempty" mapstructure:"gate"`
}

// IsGate reports whether the node branches on an affirmative/negative answer.
func (n *QuestionNode) IsGate() bool {
	return n.Branch == BranchGate || (n.Branch == "" && n.Gate != nil)
}

// Gate configures a yes/no branch point.
type Gate struct {
	// Message is returned when the answer is not one of the two tokens.
	Message string `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`

	OnAffirmative Affirmative `json:"on_affirmative" yaml:"on_affirmative" mapstructure:"on_affirmative"`
	OnNegative    Negative    `json:"on_negative" yaml:"on_negative" mapstructure:"on_negative"`
}

// Affirmative lists the nodes inserted right after the gate when it is answered yes.
type Affirmative struct {
	FollowUps []string `json:"follow_ups,omitempty" yaml:"follow_ups,omitempty" mapstructure:"follow_ups"`
}

// Negative describes what a "no" does. With neither field set the walk simply
// continues as if the gate were a linear node.
type Negative struct {
	// SkipSection marks the whole section as skipped.
	SkipSection bool `json:"skip_section,omitempty" yaml:"skip_section,omitempty" mapstructure:"skip_section"`
	// JumpTo names a later main node (or EndNode); the nodes in between are never asked.
	JumpTo string `json:"jump_to,omitempty" yaml:"jump_to,omitempty" mapstructure:"jump_to"`
}
