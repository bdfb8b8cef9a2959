package domain

// Progress reports how far a section walk has gone along its realized path.
type Progress struct {
	Answered   int `json:"answered"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NewProgress computes the percentage, rounding half up. An empty total is 0%.
func NewProgress(answered, total int) Progress {
	p := Progress{Answered: answered, Total: total}
	if total > 0 {
		p.Percentage = (answered*100*2 + total) / (total * 2)
	}
	return p
}
