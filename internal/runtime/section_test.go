package runtime_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/boletim/internal/runtime"
	"github.com/aretw0/boletim/internal/testutils"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, s *runtime.Section, stepID, text string) {
	t.Helper()
	_, err := s.Submit(stepID, text)
	require.NoError(t, err, "submit %s", stepID)
}

func TestSection_LinearAndFollowUps(t *testing.T) {
	g := testutils.Graph(t)
	s, err := runtime.NewSection(g, "1")
	require.NoError(t, err)

	assert.Equal(t, "1.1", s.CurrentStepID())
	assert.Equal(t, domain.Progress{Answered: 0, Total: 3, Percentage: 0}, s.Progress())

	submit(t, s, "1.1", "Praça central")
	assert.Equal(t, "1.2", s.CurrentStepID())

	// Affirmative gate inserts its follow-ups before the next main node
	submit(t, s, "1.2", "sim")
	assert.Equal(t, "1.2.1", s.CurrentStepID())
	assert.Equal(t, 5, s.Progress().Total)

	submit(t, s, "1.2.1", "2")
	assert.Equal(t, "1.2.2", s.CurrentStepID())

	// Nested gate
	submit(t, s, "1.2.2", "SIM")
	assert.Equal(t, "1.2.2.1", s.CurrentStepID())
	assert.Equal(t, 6, s.Progress().Total)

	submit(t, s, "1.2.2.1", "Hospital Geral")
	assert.Equal(t, "1.3", s.CurrentStepID())

	submit(t, s, "1.3", testutils.LongAnswer)
	assert.True(t, s.IsComplete())
	assert.Equal(t, runtime.StatusComplete, s.Status())
	assert.Nil(t, s.Current())
	assert.Equal(t, []string{"1.1", "1.2", "1.2.1", "1.2.2", "1.2.2.1", "1.3"}, s.Path())
	assert.Equal(t, domain.Progress{Answered: 6, Total: 6, Percentage: 100}, s.Progress())

	// Gate answers are stored as the canonical token
	answers := s.Answers()
	v, _ := answers.Get("1.2")
	assert.Equal(t, "SIM", v)
	ids := make([]string, 0, answers.Len())
	for _, e := range answers.Entries() {
		ids = append(ids, e.StepID)
	}
	assert.Equal(t, s.Path(), ids)
}

func TestSection_NegativeGateShrinksTotal(t *testing.T) {
	g := testutils.Graph(t)

	// 1. Affirmative branch
	yes, err := runtime.NewSection(g, "1")
	require.NoError(t, err)
	submit(t, yes, "1.1", "Praça central")
	submit(t, yes, "1.2", "SIM")

	// 2. Negative branch continues with the main sequence
	no, err := runtime.NewSection(g, "1")
	require.NoError(t, err)
	submit(t, no, "1.1", "Praça central")
	submit(t, no, "1.2", "NÃO")
	assert.Equal(t, "1.3", no.CurrentStepID())

	assert.Equal(t, 5, yes.Progress().Total)
	assert.Equal(t, 3, no.Progress().Total)
	assert.Equal(t, domain.Progress{Answered: 2, Total: 3, Percentage: 67}, no.Progress())
}

func TestSection_SkipSection(t *testing.T) {
	g := testutils.Graph(t)
	s, err := runtime.NewSection(g, "2")
	require.NoError(t, err)

	submit(t, s, "2.1", "não")

	assert.True(t, s.IsComplete())
	assert.True(t, s.Skipped())
	assert.Equal(t, runtime.StatusSkipped, s.Status())
	assert.Equal(t, domain.Progress{Answered: 1, Total: 1, Percentage: 100}, s.Progress())

	v, _ := s.Answers().Get("2.1")
	assert.Equal(t, "NÃO", v)
}

func TestSection_JumpTo(t *testing.T) {
	g := testutils.Graph(t)
	s, err := runtime.NewSection(g, "3")
	require.NoError(t, err)

	submit(t, s, "3.1", "NÃO")
	assert.Equal(t, "3.4", s.CurrentStepID())
	assert.Equal(t, domain.Progress{Answered: 1, Total: 2, Percentage: 50}, s.Progress())

	submit(t, s, "3.4", "Nada a declarar")
	assert.True(t, s.IsComplete())
	assert.False(t, s.Skipped())
	assert.Equal(t, []string{"3.1", "3.4"}, s.Path())
}

func TestSection_ValidationLeavesStateUnchanged(t *testing.T) {
	g := testutils.Graph(t)
	s, err := runtime.NewSection(g, "1")
	require.NoError(t, err)
	submit(t, s, "1.1", "Praça central")
	submit(t, s, "1.2", "NÃO")
	before := s.Progress()

	// 30 characters against a 50 character minimum
	_, err = s.Submit("1.3", strings.Repeat("x", 30))
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "1.3", vErr.StepID)

	assert.Equal(t, "1.3", s.CurrentStepID())
	assert.Equal(t, before, s.Progress())
	assert.False(t, s.Answers().Has("1.3"))

	// Forbidden phrase
	_, err = s.Submit("1.3", "não sei "+testutils.LongAnswer)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Descreva o que foi observado.", vErr.Message)
}

func TestSection_GateTokens(t *testing.T) {
	g := testutils.Graph(t)

	tests := []struct {
		name    string
		input   string
		wantErr string
		next    string
	}{
		{name: "Upper", input: "SIM", next: "1.2.1"},
		{name: "Lower With Spaces", input: "  sim ", next: "1.2.1"},
		{name: "Negative Lower", input: "não", next: "1.3"},
		{name: "Empty", input: "", wantErr: rules.MsgAnswerRequired},
		{name: "Not A Token", input: "talvez", wantErr: "Responda SIM ou NÃO."},
		{name: "Token Inside Sentence", input: "sim, duas", wantErr: "Responda SIM ou NÃO."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := runtime.NewSection(g, "1")
			require.NoError(t, err)
			submit(t, s, "1.1", "Praça central")

			_, err = s.Submit("1.2", tt.input)
			if tt.wantErr != "" {
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantErr, vErr.Message)
				assert.Equal(t, "1.2", s.CurrentStepID())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, s.CurrentStepID())
		})
	}
}

func TestSection_OrderingErrors(t *testing.T) {
	g := testutils.Graph(t)

	t.Run("Drift", func(t *testing.T) {
		s, err := runtime.NewSection(g, "1")
		require.NoError(t, err)

		_, err = s.Submit("1.3", testutils.LongAnswer)
		var oErr *domain.OrderingError
		require.ErrorAs(t, err, &oErr)
		assert.Equal(t, "1.1", oErr.Expected)
		assert.Equal(t, "1.3", oErr.Got)
		assert.Equal(t, "1.1", s.CurrentStepID())
	})

	t.Run("Empty Step Is Advisory", func(t *testing.T) {
		s, err := runtime.NewSection(g, "1")
		require.NoError(t, err)

		answered, err := s.Submit("", "Praça central")
		require.NoError(t, err)
		assert.Equal(t, "1.1", answered)
	})

	t.Run("Terminal Section", func(t *testing.T) {
		s, err := runtime.NewSection(g, "2")
		require.NoError(t, err)
		submit(t, s, "2.1", "NÃO")

		_, err = s.Submit("", "qualquer coisa")
		assert.True(t, domain.IsOrdering(err))
		assert.Equal(t, 1, s.Answers().Len())
	})
}

func TestSection_Update(t *testing.T) {
	g := testutils.Graph(t)
	s, err := runtime.NewSection(g, "1")
	require.NoError(t, err)
	submit(t, s, "1.1", "Praça central")
	submit(t, s, "1.2", "SIM")

	// 1. Overwrite a linear answer
	require.NoError(t, s.Update("1.1", "Rua das Flores"))
	v, _ := s.Answers().Get("1.1")
	assert.Equal(t, "Rua das Flores", v)
	assert.Equal(t, "1.2.1", s.CurrentStepID())

	// 2. Rules still apply
	assert.True(t, domain.IsValidation(s.Update("1.1", "Rua")))

	// 3. Gates cannot be edited
	assert.True(t, domain.IsOrdering(s.Update("1.2", "NÃO")))

	// 4. Unanswered steps cannot be edited
	assert.True(t, domain.IsOrdering(s.Update("1.3", testutils.LongAnswer)))

	// 5. Unknown step
	var unknown *domain.UnknownNodeError
	assert.True(t, errors.As(s.Update("9.9", "x"), &unknown))
}
