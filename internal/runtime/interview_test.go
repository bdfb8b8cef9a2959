package runtime_test

import (
	"testing"
	"time"

	"github.com/aretw0/boletim/internal/runtime"
	"github.com/aretw0/boletim/internal/testutils"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterview(t *testing.T) *runtime.Interview {
	t.Helper()
	iv, err := runtime.NewInterview(testutils.Graph(t), "sess-1", time.Now())
	require.NoError(t, err)
	return iv
}

func answer(t *testing.T, iv *runtime.Interview, stepID, text string) runtime.SubmitOutcome {
	t.Helper()
	out, err := iv.Submit(stepID, text)
	require.NoError(t, err, "submit %s", stepID)
	return out
}

func TestInterview_FullWalk(t *testing.T) {
	iv := newInterview(t)
	assert.Equal(t, "1.1", iv.CurrentStepID())
	assert.Equal(t, int64(0), iv.Version())

	// 1. Section 1, negative gate
	answer(t, iv, "1.1", "Praça central")
	answer(t, iv, "1.2", "NÃO")
	out := answer(t, iv, "1.3", testutils.LongAnswer)
	assert.True(t, out.SectionComplete)
	assert.Equal(t, "1", out.SectionID)
	assert.Equal(t, int64(3), iv.Version())

	evt, err := iv.AdvanceToNextSection()
	require.NoError(t, err)
	assert.Equal(t, "1", evt.SectionID)
	assert.Equal(t, domain.EventSectionCompleted, evt.Type)
	assert.Equal(t, "sess-1", evt.SessionID)
	require.Len(t, evt.Answers, 3)
	assert.Equal(t, "1.1", evt.Answers[0].StepID)
	assert.Equal(t, 1, iv.SectionIndex())
	assert.Equal(t, "2.1", iv.CurrentStepID())
	assert.Equal(t, int64(4), iv.Version())

	// 2. Section 2 is skipped
	out = answer(t, iv, "2.1", "NÃO")
	assert.True(t, out.SectionComplete)
	assert.True(t, out.Skipped)
	evt, err = iv.AdvanceToNextSection()
	require.NoError(t, err)
	assert.True(t, evt.Skipped)

	// 3. Section 3 jumps to the last step
	answer(t, iv, "3.1", "NÃO")
	answer(t, iv, "3.4", "Nada a declarar")
	_, err = iv.AdvanceToNextSection()
	require.NoError(t, err)

	assert.True(t, iv.IsComplete())
	assert.Nil(t, iv.CurrentNode())
	assert.Equal(t, 3, iv.SectionIndex())
	assert.Equal(t, int64(9), iv.Version())
	assert.Equal(t, domain.Progress{Answered: 2, Total: 2, Percentage: 100}, iv.Progress())

	completed := iv.Completed()
	require.Len(t, completed, 3)
	assert.False(t, completed[0].Skipped)
	assert.True(t, completed[1].Skipped)

	all := iv.AllAnswers()
	assert.Equal(t, 3, all["1"].Len())
	assert.Equal(t, 1, all["2"].Len())

	// 4. Nothing left to answer
	_, err = iv.Submit("", "mais")
	assert.True(t, domain.IsOrdering(err))
	_, err = iv.AdvanceToNextSection()
	assert.True(t, domain.IsOrdering(err))
}

func TestInterview_AdvanceRequiresTerminalSection(t *testing.T) {
	iv := newInterview(t)
	answer(t, iv, "1.1", "Praça central")

	_, err := iv.AdvanceToNextSection()
	var oErr *domain.OrderingError
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, "1.2", oErr.Expected)
	assert.Equal(t, 0, iv.SectionIndex())
	assert.Equal(t, int64(1), iv.Version())
}

func TestInterview_RejectedSubmitKeepsVersion(t *testing.T) {
	iv := newInterview(t)

	_, err := iv.Submit("1.1", "Rua")
	assert.True(t, domain.IsValidation(err))
	_, err = iv.Submit("1.2", "SIM")
	assert.True(t, domain.IsOrdering(err))

	assert.Equal(t, int64(0), iv.Version())
	assert.Equal(t, "1.1", iv.CurrentStepID())
}

func TestInterview_Update(t *testing.T) {
	iv := newInterview(t)
	answer(t, iv, "1.1", "Praça central")
	answer(t, iv, "1.2", "NÃO")
	answer(t, iv, "1.3", testutils.LongAnswer)
	_, err := iv.AdvanceToNextSection()
	require.NoError(t, err)
	version := iv.Version()

	t.Run("Completed Section", func(t *testing.T) {
		sectionID, err := iv.Update("1.1", "Rua das Flores, 10")
		require.NoError(t, err)
		assert.Equal(t, "1", sectionID)
		assert.Equal(t, version+1, iv.Version())

		v, _ := iv.AllAnswers()["1"].Get("1.1")
		assert.Equal(t, "Rua das Flores, 10", v)
		assert.Equal(t, "2.1", iv.CurrentStepID())
	})

	t.Run("Pending Step", func(t *testing.T) {
		_, err := iv.Update("2.1", "SIM")
		assert.True(t, domain.IsOrdering(err))
	})

	t.Run("Not Started", func(t *testing.T) {
		_, err := iv.Update("3.2", "Arma")
		assert.True(t, domain.IsOrdering(err))
	})

	t.Run("Invalid Answer", func(t *testing.T) {
		before := iv.Version()
		_, err := iv.Update("1.3", "curto")
		assert.True(t, domain.IsValidation(err))
		assert.Equal(t, before, iv.Version())
	})

	t.Run("Unknown Step", func(t *testing.T) {
		_, err := iv.Update("7.7", "x")
		var unknown *domain.UnknownNodeError
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestInterview_Narratives(t *testing.T) {
	iv := newInterview(t)
	iv.SetNarrative("1", domain.NarrativeStatus{Requested: true, Text: "Relato."})

	assert.Equal(t, int64(0), iv.Version())
	assert.Equal(t, "Relato.", iv.Narratives()["1"].Text)
}
