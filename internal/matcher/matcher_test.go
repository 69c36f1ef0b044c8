package matcher

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwan/tasklens/internal/domain"
	"github.com/dkwan/tasklens/internal/storage"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedMatcher(t *testing.T) (*TaskMatcher, *storage.MemoryStorage, *domain.Task, *domain.Task) {
	t.Helper()

	store := storage.NewMemoryStorage()

	login := domain.NewTask("Fix login bug", "")
	login.Tags = []string{"bug", "urgent"}
	docs := domain.NewTask("Update documentation", "")

	require.NoError(t, store.Create(login))
	require.NoError(t, store.Create(docs))

	return NewTaskMatcher(store, nil, testLogger()), store, login, docs
}

func TestMatchTasks_ExactTitle(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	results, err := m.FindTasksByDescription("Fix login bug", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, login.ID, top.Task.ID)
	assert.Equal(t, 100, top.Confidence)
	assert.Equal(t, domain.MatchExactTitle, top.MatchType)
	assert.Empty(t, top.Alternatives)
}

func TestMatchTasks_FuzzyTitle(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	results, err := m.FindTasksByDescription("login issue", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		if r.Task.ID == login.ID {
			found = true
			assert.Equal(t, domain.MatchFuzzyTitle, r.MatchType)
			assert.Greater(t, r.Confidence, 30)
		}
	}
	assert.True(t, found, "should match the login task")
}

func TestMatchTasks_TagMatch(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	results, err := m.FindTasksByDescription("bug", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, login.ID, top.Task.ID)
	assert.Equal(t, domain.MatchTag, top.MatchType)
	assert.Equal(t, 70, top.Confidence)
}

func TestMatchTasks_DescriptionMatch(t *testing.T) {
	store := storage.NewMemoryStorage()
	task := domain.NewTask("Sprint admin", "collect release notes for the sprint review")
	require.NoError(t, store.Create(task))
	m := NewTaskMatcher(store, nil, testLogger())

	results, err := m.FindTasksByDescription("release notes", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, domain.MatchDescription, results[0].MatchType)
}

func TestMatchTasks_NoMatch(t *testing.T) {
	m, _, _, _ := seedMatcher(t)

	results, err := m.FindTasksByDescription("nonexistent task xyz", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchTasks_ExcludesFinishedTasks(t *testing.T) {
	m, store, login, _ := seedMatcher(t)

	_, err := store.Update(login.ID, map[string]interface{}{"status": domain.StatusCompleted})
	require.NoError(t, err)

	results, err := m.FindTasksByDescription("Fix login bug", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchTasks_SortedAndUnique(t *testing.T) {
	store := storage.NewMemoryStorage()
	titles := []string{"bug", "server cleanup", "fix the bug", "weekly triage"}
	for i, title := range titles {
		task := domain.NewTask(title, "")
		switch i {
		case 1:
			task.Tags = []string{"bug"}
		case 3:
			task.Tags = []string{"bugs"}
		}
		require.NoError(t, store.Create(task))
	}
	m := NewTaskMatcher(store, nil, testLogger())

	results, err := m.FindTasksByDescription("bug", nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	seen := make(map[string]bool)
	for i, r := range results {
		assert.False(t, seen[r.Task.ID], "task %s appears twice", r.Task.ID)
		seen[r.Task.ID] = true
		if i > 0 {
			assert.LessOrEqual(t, r.Confidence, results[i-1].Confidence)
		}
	}
}

func TestMatchTasks_Alternatives(t *testing.T) {
	store := storage.NewMemoryStorage()

	exact := domain.NewTask("bug", "")
	tagged := domain.NewTask("server cleanup", "")
	tagged.Tags = []string{"bug"}
	plural := domain.NewTask("weekly triage", "")
	plural.Tags = []string{"bugs"}
	substr := domain.NewTask("fix the bug", "")

	for _, task := range []*domain.Task{exact, tagged, plural, substr} {
		require.NoError(t, store.Create(task))
	}
	m := NewTaskMatcher(store, nil, testLogger())

	// Scores under default weights: exact 100, tagged 70, plural 53, substr 48.
	results, err := m.FindTasksByDescription("bug", nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := make(map[string]*domain.MatchResult)
	for _, r := range results {
		byID[r.Task.ID] = r
	}

	// Settled results never carry alternatives.
	assert.GreaterOrEqual(t, byID[exact.ID].Confidence, domain.SettledConfidence)
	assert.Empty(t, byID[exact.ID].Alternatives)

	// Unsettled results list lower-ranked candidates in [30, confidence).
	require.Len(t, byID[tagged.ID].Alternatives, 2)
	assert.Equal(t, plural.ID, byID[tagged.ID].Alternatives[0].ID)
	assert.Equal(t, substr.ID, byID[tagged.ID].Alternatives[1].ID)

	require.Len(t, byID[plural.ID].Alternatives, 1)
	assert.Equal(t, substr.ID, byID[plural.ID].Alternatives[0].ID)

	assert.Empty(t, byID[substr.ID].Alternatives)
}

func TestMatchTasks_MaxResultsAndFloor(t *testing.T) {
	store := storage.NewMemoryStorage()
	for _, title := range []string{"deploy api", "deploy web", "deploy docs"} {
		require.NoError(t, store.Create(domain.NewTask(title, "")))
	}
	m := NewTaskMatcher(store, nil, testLogger())

	results, err := m.MatchTasks(domain.MatchQuery{Raw: "deploy", MaxResults: 2, MinConfidence: 30})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = m.MatchTasks(domain.MatchQuery{Raw: "deploy", MaxResults: 10, MinConfidence: 99})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchTasks_ContextualBoost(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	ctx := &domain.MatchContext{CurrentTaskID: login.ID}
	results, err := m.FindTasksByDescription("bug", ctx)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, login.ID, top.Task.ID)
	assert.Equal(t, domain.MatchContextual, top.MatchType)
	// Best lexical signal is the tag at 70; current-task bonus adds 0.8*30.
	assert.Equal(t, 94, top.Confidence)
	assert.GreaterOrEqual(t, top.Confidence, 70)
}

func TestMatchTasks_ContextNeverStandalone(t *testing.T) {
	m, _, _, docs := seedMatcher(t)

	// Strong context for the docs task must not surface it for an
	// unrelated query.
	ctx := &domain.MatchContext{CurrentTaskID: docs.ID, RecentTaskIDs: []string{docs.ID}}
	results, err := m.FindTasksByDescription("bug", ctx)
	require.NoError(t, err)

	for _, r := range results {
		assert.NotEqual(t, docs.ID, r.Task.ID)
	}
}

func TestMatchTasks_UnknownContextIDTolerated(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	ctx := &domain.MatchContext{CurrentTaskID: "not-a-real-id"}
	results, err := m.FindTasksByDescription("bug", ctx)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// No bonus fires; the tag signal stands.
	assert.Equal(t, login.ID, results[0].Task.ID)
	assert.Equal(t, domain.MatchTag, results[0].MatchType)
	assert.Equal(t, 70, results[0].Confidence)
}

type failingStorage struct{}

func (failingStorage) List(domain.TaskFilter) ([]*domain.Task, error) {
	return nil, errors.New("disk unavailable")
}

func TestMatchTasks_StoreFailurePropagates(t *testing.T) {
	m := NewTaskMatcher(failingStorage{}, nil, testLogger())

	results, err := m.FindTasksByDescription("anything", nil)
	assert.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "disk unavailable")
}

func TestUpdateWeights_PartialMerge(t *testing.T) {
	m, _, _, _ := seedMatcher(t)

	before := m.Weights()
	exact := 0.95
	m.UpdateWeights(domain.WeightsPatch{ExactTitle: &exact})

	after := m.Weights()
	assert.Equal(t, 0.95, after.ExactTitle)
	assert.Equal(t, before.FuzzyTitle, after.FuzzyTitle)
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, before.Tags, after.Tags)
	assert.Equal(t, before.RecentActivity, after.RecentActivity)
	assert.Equal(t, before.Contextual, after.Contextual)
}

func TestUpdateWeights_AffectsScoring(t *testing.T) {
	m, _, _, _ := seedMatcher(t)

	zero := 0.0
	m.UpdateWeights(domain.WeightsPatch{FuzzyTitle: &zero})

	results, err := m.FindTasksByDescription("login issue", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTasks_NarrowedByPattern(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	results, err := m.SearchTasks("finish the login bug", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 5)

	assert.Equal(t, login.ID, results[0].Task.ID)
	assert.Equal(t, domain.MatchFuzzyTitle, results[0].MatchType)
	// The narrowed floor is 40; the reference "login bug" scores above it.
	assert.GreaterOrEqual(t, results[0].Confidence, 40)
}

func TestSearchTasks_FallsBackWithoutPattern(t *testing.T) {
	m, _, login, _ := seedMatcher(t)

	results, err := m.SearchTasks("login", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, login.ID, results[0].Task.ID)
}
