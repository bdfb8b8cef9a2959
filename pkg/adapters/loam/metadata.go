package loam

// Document kinds recognized in the frontmatter.
const (
	KindSection   = "section"
	KindInterview = "interview"
)

// SectionMetadata is the frontmatter of one interview document.
// A "section" document (the default kind) declares a section and its nodes;
// its Markdown body becomes the section intro. A single optional "interview"
// document carries the name, gate tokens and messages.
type SectionMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Kind  string `json:"kind" mapstructure:"kind"`
	Order int    `json:"order" mapstructure:"order"`
	Title string `json:"title" mapstructure:"title"`
	Entry string `json:"entry" mapstructure:"entry"`

	// Nodes are decoded into domain.QuestionNode after loading so that both
	// YAML maps and JSON objects are accepted.
	Nodes []any `json:"nodes" mapstructure:"nodes"`

	// Interview header
	Name     string         `json:"name" mapstructure:"name"`
	Tokens   map[string]any `json:"tokens" mapstructure:"tokens"`
	Messages map[string]any `json:"messages" mapstructure:"messages"`
}
