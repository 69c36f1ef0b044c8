package matcher

import "github.com/dkwan/tasklens/internal/domain"

// contextScore computes the advisory bonus for a task given ambient
// context: the currently open task, recently touched tasks, and active UI
// filters. Additive, capped at 1.0. It is a bonus layer only: the matcher
// applies it solely to tasks that already matched a lexical signal, so
// contextual relevance alone never surfaces an unrelated task. Unknown
// task ids contribute nothing.
func contextScore(task *domain.Task, ctx *domain.MatchContext, w domain.MatchingWeights) float64 {
	if ctx == nil {
		return 0.0
	}

	score := 0.0
	if ctx.CurrentTaskID != "" && task.ID == ctx.CurrentTaskID {
		score += 0.8
	}
	for _, id := range ctx.RecentTaskIDs {
		if id == task.ID {
			score += 0.6 * w.RecentActivity
			break
		}
	}
	if ctx.Filters != nil {
		if hasStatus(ctx.Filters.Statuses, task.Status) {
			score += 0.3
		}
		if hasPriority(ctx.Filters.Priorities, task.Priority) {
			score += 0.2
		}
		if tagsIntersect(ctx.Filters.Tags, task.Tags) {
			score += 0.4
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func hasStatus(statuses []domain.TaskStatus, s domain.TaskStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func hasPriority(priorities []domain.Priority, p domain.Priority) bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

func tagsIntersect(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				return true
			}
		}
	}
	return false
}
