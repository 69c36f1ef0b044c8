package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkwan/tasklens/internal/domain"
	"github.com/dkwan/tasklens/internal/similarity"
	"github.com/dkwan/tasklens/internal/telemetry"
)

// Lexical signals below these thresholds do not produce candidates.
const (
	titleThreshold   = 0.3
	tagThreshold     = 0.6
	contextThreshold = 0.5
	contextBonusSpan = 30.0
)

// TaskStorage is the read-only slice of the repository the matcher needs.
type TaskStorage interface {
	List(filter domain.TaskFilter) ([]*domain.Task, error)
}

// TaskMatcher scores stored tasks against free-form query phrases and
// returns a ranked, deduplicated result list. Weights are the only mutable
// state; everything else is read per call, so concurrent matching is safe.
type TaskMatcher struct {
	storage TaskStorage
	sink    telemetry.Sink
	log     *logrus.Logger

	mu      sync.RWMutex
	weights domain.MatchingWeights
}

// NewTaskMatcher wires the matcher to its collaborators. A nil sink or
// logger is replaced by a no-op sink and a default logger.
func NewTaskMatcher(storage TaskStorage, sink telemetry.Sink, log *logrus.Logger) *TaskMatcher {
	if sink == nil {
		sink = telemetry.Noop{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &TaskMatcher{
		storage: storage,
		sink:    sink,
		log:     log,
		weights: domain.DefaultWeights(),
	}
}

// candidate is one scoring signal for one task before per-task reduction.
type candidate struct {
	confidence int
	matchType  domain.MatchType
	reason     string
}

// FindTasksByDescription matches the raw query under default limits.
func (m *TaskMatcher) FindTasksByDescription(query string, ctx *domain.MatchContext) ([]*domain.MatchResult, error) {
	return m.MatchTasks(domain.NewMatchQuery(query, ctx))
}

// SearchTasks is the intent-aware entry point. When the pattern extractor
// finds a task reference, matching runs against just that reference with a
// tighter floor and the intent folded into the context; otherwise the raw
// query goes through the plain path.
func (m *TaskMatcher) SearchTasks(query string, ctx *domain.MatchContext) ([]*domain.MatchResult, error) {
	ref, ok := ExtractTaskReference(query)
	if !ok {
		return m.MatchTasks(domain.NewMatchQuery(query, ctx))
	}

	narrowed := &domain.MatchContext{}
	if ctx != nil {
		copied := *ctx
		narrowed = &copied
	}
	intent := ref.Intent
	narrowed.Intent = &intent

	m.log.WithFields(logrus.Fields{
		"reference": ref.Reference,
		"intent":    ref.Intent,
	}).Debug("narrowed search from extracted reference")

	return m.MatchTasks(domain.MatchQuery{
		Raw:           ref.Reference,
		Context:       narrowed,
		MaxResults:    5,
		MinConfidence: 40,
	})
}

// MatchTasks runs the full pipeline: load, score per task, reduce to one
// result per task, rank, apply the confidence floor and result cap, then
// attach alternatives to unsettled results. A store failure aborts with no
// partial results; an empty candidate set is an empty list, not an error.
func (m *TaskMatcher) MatchTasks(query domain.MatchQuery) ([]*domain.MatchResult, error) {
	query = query.Normalized()
	weights := m.Weights()

	opID := uuid.New().String()
	m.sink.StartOperation(opID, map[string]interface{}{
		"operation": "match_tasks",
		"query":     query.Raw,
	})

	tasks, err := m.storage.List(domain.TaskFilter{})
	if err != nil {
		m.log.WithError(err).Error("task store read failed")
		m.sink.EndOperation(opID, telemetry.Outcome{Success: false, Error: err.Error()})
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	m.checkContextReferences(query.Context, tasks)

	var scored []*domain.MatchResult
	for _, task := range tasks {
		// Finished work is not a disambiguation target.
		if task.Status == domain.StatusCompleted || task.Status == domain.StatusCancelled {
			continue
		}
		if result := scoreTask(task, query, weights); result != nil {
			scored = append(scored, result)
		}
	}

	sortResults(scored)

	kept := make([]*domain.MatchResult, 0, len(scored))
	for _, r := range scored {
		if r.Confidence >= query.MinConfidence {
			kept = append(kept, r)
		}
	}
	if len(kept) > query.MaxResults {
		kept = kept[:query.MaxResults]
	}

	attachAlternatives(kept, scored)

	m.sink.EndOperation(opID, telemetry.Outcome{
		Success: true,
		Metrics: map[string]interface{}{
			"candidates": len(scored),
			"results":    len(kept),
		},
	})
	return kept, nil
}

// Weights returns a copy of the current weights.
func (m *TaskMatcher) Weights() domain.MatchingWeights {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weights
}

// UpdateWeights merges a partial update into the current weights. Fields
// not set in the patch keep their prior values.
func (m *TaskMatcher) UpdateWeights(patch domain.WeightsPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights = m.weights.Merge(patch)
}

// scoreTask builds the per-task candidate list and keeps the single best
// signal, so a task appears at most once in the output.
func scoreTask(task *domain.Task, query domain.MatchQuery, w domain.MatchingWeights) *domain.MatchResult {
	raw := strings.TrimSpace(query.Raw)
	var candidates []candidate

	if strings.EqualFold(strings.TrimSpace(task.Title), raw) {
		candidates = append(candidates, candidate{
			confidence: scaled(1.0, w.ExactTitle),
			matchType:  domain.MatchExactTitle,
			reason:     "title matches the query exactly",
		})
	} else if s := similarity.FieldScore(task.Title, raw); s > titleThreshold {
		candidates = append(candidates, candidate{
			confidence: scaled(s, w.FuzzyTitle),
			matchType:  domain.MatchFuzzyTitle,
			reason:     fmt.Sprintf("title is similar to the query (%d%%)", int(s*100)),
		})
	}

	if s := similarity.FieldScore(task.Description, raw); s > titleThreshold {
		candidates = append(candidates, candidate{
			confidence: scaled(s, w.Description),
			matchType:  domain.MatchDescription,
			reason:     "description mentions the query",
		})
	}

	for _, tag := range task.Tags {
		if s := similarity.FuzzyScore(tag, raw); s > tagThreshold {
			candidates = append(candidates, candidate{
				confidence: scaled(s, w.Tags),
				matchType:  domain.MatchTag,
				reason:     fmt.Sprintf("tagged %q", tag),
			})
		}
	}

	// Context only boosts tasks that already matched lexically.
	if len(candidates) > 0 && query.Context != nil {
		if cs := contextScore(task, query.Context, w); cs > contextThreshold {
			best := bestCandidate(candidates)
			boosted := best.confidence + int(math.Round(cs*contextBonusSpan*w.Contextual))
			if boosted > 100 {
				boosted = 100
			}
			candidates = append(candidates, candidate{
				confidence: boosted,
				matchType:  domain.MatchContextual,
				reason:     "relevant to the current context",
			})
		}
	}

	if len(candidates) == 0 {
		return nil
	}
	best := bestCandidate(candidates)
	return &domain.MatchResult{
		Task:        task,
		Confidence:  best.confidence,
		MatchReason: best.reason,
		MatchType:   best.matchType,
	}
}

func bestCandidate(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.confidence > best.confidence {
			best = c
		}
	}
	return best
}

// scaled converts a 0-1 similarity into weighted 0-100 confidence.
func scaled(score, weight float64) int {
	conf := int(math.Round(score * 100 * weight))
	if conf > 100 {
		conf = 100
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// sortResults ranks by confidence with a deterministic tie-break: most
// recently updated first, then task id. Store iteration order is not
// stable across implementations, so it is never relied on.
func sortResults(results []*domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.Task.UpdatedAt.Equal(b.Task.UpdatedAt) {
			return a.Task.UpdatedAt.After(b.Task.UpdatedAt)
		}
		return a.Task.ID < b.Task.ID
	})
}

// attachAlternatives gives every unsettled result up to MaxAlternatives
// other tasks from the unfiltered ranking whose confidence falls in
// [AlternativeFloor, result confidence). Settled results stay bare.
func attachAlternatives(kept, all []*domain.MatchResult) {
	for _, r := range kept {
		if r.Confidence >= domain.SettledConfidence {
			continue
		}
		for _, other := range all {
			if other.Task.ID == r.Task.ID {
				continue
			}
			if other.Confidence >= domain.AlternativeFloor && other.Confidence < r.Confidence {
				r.Alternatives = append(r.Alternatives, other.Task)
				if len(r.Alternatives) == domain.MaxAlternatives {
					break
				}
			}
		}
	}
}

// checkContextReferences logs context ids that point at no stored task.
// Context is advisory, so this is tolerated and non-fatal.
func (m *TaskMatcher) checkContextReferences(ctx *domain.MatchContext, tasks []*domain.Task) {
	if ctx == nil || ctx.CurrentTaskID == "" {
		return
	}
	for _, task := range tasks {
		if task.ID == ctx.CurrentTaskID {
			return
		}
	}
	m.log.WithField("currentTaskId", ctx.CurrentTaskID).Debug("context references an unknown task")
}
