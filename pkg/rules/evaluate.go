package rules

// Verdict is the outcome of evaluating an answer.
type Verdict struct {
	Valid   bool
	Message string
	// Failed is the rule that rejected the answer, nil when valid or empty.
	Failed Rule
}

// Evaluator evaluates answers against rule sets.
// The zero value uses MsgAnswerRequired for empty answers.
type Evaluator struct {
	RequiredMessage string
}

// Evaluate checks answer against set. The answer is trimmed first; an empty
// answer always fails with the required-answer message.
func (e Evaluator) Evaluate(answer string, set RuleSet) Verdict {
	in := NewInput(answer)
	if in.Text == "" {
		return Verdict{Message: orDefault(e.RequiredMessage, MsgAnswerRequired)}
	}
	for _, r := range set {
		if !r.Check(in) {
			return Verdict{Message: r.Message(), Failed: r}
		}
	}
	return Verdict{Valid: true}
}

// Evaluate checks answer against set with the default messages.
func Evaluate(answer string, set RuleSet) Verdict {
	return Evaluator{}.Evaluate(answer, set)
}
