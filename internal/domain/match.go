package domain

// UserIntent is the action the user wants performed on the matched task.
// It is produced by the pattern extractor or supplied by the caller, never
// guessed from context alone.
type UserIntent string

const (
	IntentCompleteTask UserIntent = "complete-task"
	IntentStartTimer   UserIntent = "start-timer"
	IntentEditTask     UserIntent = "edit-task"
	IntentDeleteTask   UserIntent = "delete-task"
	IntentViewDetails  UserIntent = "view-details"
	IntentScheduleTask UserIntent = "schedule-task"
)

// MatchType is the signal category that produced a result.
type MatchType string

const (
	MatchExactTitle  MatchType = "exact-title"
	MatchFuzzyTitle  MatchType = "fuzzy-title"
	MatchDescription MatchType = "description-match"
	MatchTag         MatchType = "tag-match"
	MatchContextual  MatchType = "contextual"
)

// Confidence is an integer on a 0-100 scale throughout; it is not a
// probability.
const (
	DefaultMaxResults    = 10
	DefaultMinConfidence = 30

	// Results at or above SettledConfidence never carry alternatives.
	SettledConfidence = 80
	// Alternatives are drawn from [AlternativeFloor, result confidence).
	AlternativeFloor = 30
	MaxAlternatives  = 3
)

// ActiveFilters mirrors whatever view filters the host UI currently has
// applied. All fields are optional; empty slices mean "no filter".
type ActiveFilters struct {
	Statuses   []TaskStatus `json:"statuses,omitempty"`
	Priorities []Priority   `json:"priorities,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
}

// MatchContext is advisory ambient state. References to unknown task ids
// are tolerated and simply contribute no bonus.
type MatchContext struct {
	CurrentTaskID string         `json:"currentTaskId,omitempty"`
	RecentTaskIDs []string       `json:"recentTaskIds,omitempty"`
	Filters       *ActiveFilters `json:"filters,omitempty"`
	Intent        *UserIntent    `json:"intent,omitempty"`
}

type MatchQuery struct {
	Raw           string
	Context       *MatchContext
	MaxResults    int
	MinConfidence int
}

// NewMatchQuery builds a query with the default result cap and confidence
// floor.
func NewMatchQuery(raw string, ctx *MatchContext) MatchQuery {
	return MatchQuery{
		Raw:           raw,
		Context:       ctx,
		MaxResults:    DefaultMaxResults,
		MinConfidence: DefaultMinConfidence,
	}
}

// Normalized fills in zero-valued limits with their defaults.
func (q MatchQuery) Normalized() MatchQuery {
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MinConfidence <= 0 {
		q.MinConfidence = DefaultMinConfidence
	}
	return q
}

type MatchResult struct {
	Task         *Task     `json:"task"`
	Confidence   int       `json:"confidence"`
	MatchReason  string    `json:"matchReason"`
	MatchType    MatchType `json:"matchType"`
	Alternatives []*Task   `json:"alternatives,omitempty"`
}

// MatchingWeights are per-signal multipliers, replaceable at runtime for
// personalization. Under the defaults every scoring formula reduces to its
// fixed constant.
type MatchingWeights struct {
	ExactTitle     float64 `json:"exactTitle"`
	FuzzyTitle     float64 `json:"fuzzyTitle"`
	Description    float64 `json:"description"`
	Tags           float64 `json:"tags"`
	RecentActivity float64 `json:"recentActivity"`
	Contextual     float64 `json:"contextual"`
}

func DefaultWeights() MatchingWeights {
	return MatchingWeights{
		ExactTitle:     1.0,
		FuzzyTitle:     0.8,
		Description:    0.6,
		Tags:           0.7,
		RecentActivity: 1.0,
		Contextual:     1.0,
	}
}

// WeightsPatch is a partial update; nil fields leave the current value
// untouched.
type WeightsPatch struct {
	ExactTitle     *float64 `json:"exactTitle,omitempty"`
	FuzzyTitle     *float64 `json:"fuzzyTitle,omitempty"`
	Description    *float64 `json:"description,omitempty"`
	Tags           *float64 `json:"tags,omitempty"`
	RecentActivity *float64 `json:"recentActivity,omitempty"`
	Contextual     *float64 `json:"contextual,omitempty"`
}

func (w MatchingWeights) Merge(patch WeightsPatch) MatchingWeights {
	if patch.ExactTitle != nil {
		w.ExactTitle = *patch.ExactTitle
	}
	if patch.FuzzyTitle != nil {
		w.FuzzyTitle = *patch.FuzzyTitle
	}
	if patch.Description != nil {
		w.Description = *patch.Description
	}
	if patch.Tags != nil {
		w.Tags = *patch.Tags
	}
	if patch.RecentActivity != nil {
		w.RecentActivity = *patch.RecentActivity
	}
	if patch.Contextual != nil {
		w.Contextual = *patch.Contextual
	}
	return w
}

// TaskReference is the outcome of pattern extraction: the substring that
// names a task plus the inferred intent and a fixed confidence.
type TaskReference struct {
	Reference  string     `json:"reference"`
	Intent     UserIntent `json:"intent"`
	Confidence int        `json:"confidence"`
}

// ResolutionRequest bundles everything the presentation layer needs to ask
// the user which task they meant. Matches is the full unfiltered list.
type ResolutionRequest struct {
	Query   string         `json:"query"`
	Matches []*MatchResult `json:"matches"`
	Context *MatchContext  `json:"context,omitempty"`
}

// ResolutionResponse carries the user's decision: a selected task, a
// cancellation, or a request to create a new task with the given title.
type ResolutionResponse struct {
	Selected    *Task  `json:"selected,omitempty"`
	Cancelled   bool   `json:"cancelled,omitempty"`
	CreateTitle string `json:"createTitle,omitempty"`
}
