package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwan/tasklens/internal/domain"
)

func TestExtractTaskReference_NoPattern(t *testing.T) {
	for _, input := range []string{"hello world", "", "   ", "lorem ipsum dolor"} {
		ref, ok := ExtractTaskReference(input)
		assert.False(t, ok, "input %q", input)
		assert.Nil(t, ref)
	}
}

func TestExtractTaskReference_Intents(t *testing.T) {
	cases := []struct {
		input      string
		reference  string
		intent     domain.UserIntent
		confidence int
	}{
		{"finish the login bug", "login bug", domain.IntentCompleteTask, 90},
		{"complete task payments", "payments", domain.IntentCompleteTask, 90},
		{"start timer for the login bug", "login bug", domain.IntentStartTimer, 85},
		{"start working on payments", "payments", domain.IntentStartTimer, 75},
		{"update the login form", "login form", domain.IntentEditTask, 85},
		{"delete old reports", "old reports", domain.IntentDeleteTask, 85},
		{"schedule dentist appointment for tomorrow", "dentist appointment", domain.IntentScheduleTask, 80},
		{"show me Fix login bug", "Fix login bug", domain.IntentViewDetails, 75},
		{"the task named deploy", "deploy", domain.IntentViewDetails, 50},
		{"task called deploy", "deploy", domain.IntentViewDetails, 50},
	}

	for _, c := range cases {
		ref, ok := ExtractTaskReference(c.input)
		require.True(t, ok, "input %q", c.input)
		assert.Equal(t, c.reference, ref.Reference, "input %q", c.input)
		assert.Equal(t, c.intent, ref.Intent, "input %q", c.input)
		assert.Equal(t, c.confidence, ref.Confidence, "input %q", c.input)
	}
}

func TestExtractTaskReference_FirstMatchWins(t *testing.T) {
	// "complete ..." must take priority over the generic task-named
	// catch-all even though both could apply.
	ref, ok := ExtractTaskReference("complete the task named deploy")
	require.True(t, ok)
	assert.Equal(t, domain.IntentCompleteTask, ref.Intent)
	assert.Equal(t, 90, ref.Confidence)
}

func TestExtractTaskReference_CaseInsensitive(t *testing.T) {
	ref, ok := ExtractTaskReference("FINISH THE LOGIN BUG")
	require.True(t, ok)
	assert.Equal(t, domain.IntentCompleteTask, ref.Intent)
	assert.Equal(t, "LOGIN BUG", ref.Reference)
}
