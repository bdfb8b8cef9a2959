package domain

// Section is an ordered template of question nodes devoted to one topic.
// It owns no mutable state.
type Section struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`

	// Intro is optional text shown when the section begins.
	Intro string `json:"intro,omitempty" yaml:"intro,omitempty" mapstructure:"intro"`

	// Entry is the first node asked. Defaults to the first main node.
	Entry string `json:"entry,omitempty" yaml:"entry,omitempty" mapstructure:"entry"`

	// Nodes lists every node of the section, including gate follow-ups.
	// Nodes not referenced as follow-ups form the main sequence, in this order.
	Nodes []QuestionNode `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// GateTokens holds the two literal answers a gate accepts.
type GateTokens struct {
	Affirmative string `json:"affirmative,omitempty" yaml:"affirmative,omitempty" mapstructure:"affirmative"`
	Negative    string `json:"negative,omitempty" yaml:"negative,omitempty" mapstructure:"negative"`
}

// Messages overrides the fixed engine messages.
type Messages struct {
	Required string `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Gate     string `json:"gate,omitempty" yaml:"gate,omitempty" mapstructure:"gate"`
}

// Definition is the complete static configuration of an interview.
type Definition struct {
	Name     string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Tokens   GateTokens `json:"tokens,omitempty" yaml:"tokens,omitempty" mapstructure:"tokens"`
	Messages Messages   `json:"messages,omitempty" yaml:"messages,omitempty" mapstructure:"messages"`
	Sections []Section  `json:"sections" yaml:"sections" mapstructure:"sections"`
}
