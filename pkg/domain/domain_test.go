package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswers_KeepsFirstInsertionOrder(t *testing.T) {
	a := domain.NewAnswers()
	a.Set("1.1", "a")
	a.Set("1.2", "b")
	a.Set("1.1", "c")

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []domain.AnswerEntry{{StepID: "1.1", Text: "c"}, {StepID: "1.2", Text: "b"}}, a.Entries())

	clone := a.Clone()
	clone.Set("1.3", "d")
	assert.False(t, a.Has("1.3"))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"stepId":"1.1","text":"c"},{"stepId":"1.2","text":"b"}]`, string(data))

	var nilAnswers *domain.Answers
	assert.Equal(t, 0, nilAnswers.Len())
	assert.False(t, nilAnswers.Has("1.1"))
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		reason  domain.SnapshotReason
		version int64
	}{
		{name: "Valid", input: `{"version":3,"currentSectionIndex":1,"currentStepId":"2.1","answers":{"1.1":"x"}}`, version: 3},
		{name: "Missing Version", input: `{"currentStepId":"1.1"}`, reason: domain.ReasonMissingVersion},
		{name: "Null Version", input: `{"version":null}`, reason: domain.ReasonMissingVersion},
		{name: "String Version", input: `{"version":"3"}`, reason: domain.ReasonMalformed},
		{name: "Fractional Version", input: `{"version":2.5}`, reason: domain.ReasonMalformed},
		{name: "Not JSON", input: `{version`, reason: domain.ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := domain.DecodeSnapshot([]byte(tt.input))
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.version, snap.Version)
				assert.Equal(t, "2.1", snap.CurrentStepID)
				assert.Equal(t, "x", snap.Answers["1.1"])
				return
			}
			var sErr *domain.SnapshotError
			require.ErrorAs(t, err, &sErr)
			assert.Equal(t, tt.reason, sErr.Reason)
		})
	}
}

func TestNewProgress(t *testing.T) {
	assert.Equal(t, domain.Progress{}, domain.NewProgress(0, 0))
	assert.Equal(t, 33, domain.NewProgress(1, 3).Percentage)
	assert.Equal(t, 67, domain.NewProgress(2, 3).Percentage)
	assert.Equal(t, 50, domain.NewProgress(1, 2).Percentage)
	assert.Equal(t, 100, domain.NewProgress(1, 1).Percentage)
}

func TestQuestionNode_IsGate(t *testing.T) {
	assert.True(t, (&domain.QuestionNode{Branch: domain.BranchGate}).IsGate())
	assert.True(t, (&domain.QuestionNode{Gate: &domain.Gate{}}).IsGate())
	assert.False(t, (&domain.QuestionNode{}).IsGate())
	assert.False(t, (&domain.QuestionNode{Branch: domain.BranchLinear, Gate: &domain.Gate{}}).IsGate())
}

func TestSessionRecord_CloneIsDeep(t *testing.T) {
	r := &domain.SessionRecord{
		SessionID:  "s",
		Draft:      domain.DraftSnapshot{Version: 1, Answers: map[string]string{"1.1": "a"}},
		Narratives: map[string]domain.NarrativeStatus{"1": {Requested: true}},
	}
	c := r.Clone()
	c.Draft.Answers["1.1"] = "changed"
	c.Narratives["1"] = domain.NarrativeStatus{Text: "x"}

	assert.Equal(t, "a", r.Draft.Answers["1.1"])
	assert.True(t, r.Narratives["1"].Requested)
}
