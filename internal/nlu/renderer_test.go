package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderQuestionCoversEveryReason(t *testing.T) {
	reasons := []ClarificationReason{
		ReasonConflictingScopes,
		ReasonMultipleDatesNoRange,
		ReasonMultipleTimesNoRange,
		ReasonConflictingSignals,
		ReasonAmbiguousTimeNoWindow,
		ReasonBareWeekday,
		ReasonVagueDate,
		ReasonContextDependentDate,
		ReasonLocaleAmbiguousDate,
		ReasonServiceVariant,
		ReasonMissingDate,
		ReasonMissingTime,
	}
	for _, reason := range reasons {
		q := RenderQuestion(newSignal(prioritySemantic, reason, nil))
		assert.NotEmpty(t, q, "reason %s must render a question", reason)
	}
}

func TestRenderQuestionUsesData(t *testing.T) {
	q := RenderQuestion(newSignal(prioritySemantic, ReasonBareWeekday, map[string]any{"weekday": "friday"}))
	assert.Contains(t, q, "friday")

	q = RenderQuestion(newSignal(priorityCalendar, ReasonMissingTime, map[string]any{"date": "2025-01-15"}))
	assert.Contains(t, q, "2025-01-15")

	q = RenderQuestion(newSignal(prioritySemantic, ReasonServiceVariant, map[string]any{
		"family":     "haircut",
		"candidates": []string{"mens cut", "womens cut"},
	}))
	assert.Contains(t, q, "mens cut or womens cut")
}

func TestRenderQuestionNilSignal(t *testing.T) {
	assert.Empty(t, RenderQuestion(nil))
}
