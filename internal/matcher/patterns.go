package matcher

import (
	"regexp"
	"strings"

	"github.com/dkwan/tasklens/internal/domain"
)

// referencePattern maps one natural-language phrasing to a task reference
// and an inferred intent. Confidence is a fixed per-pattern constant, not
// computed: it seeds a focused search, it is never the final result score.
type referencePattern struct {
	re         *regexp.Regexp
	intent     domain.UserIntent
	confidence int
}

// Patterns are tried in order and the first hit wins, so specific intents
// must precede the generic catch-alls.
var referencePatterns = []referencePattern{
	{regexp.MustCompile(`(?i)^(?:complete|finish|close|done with)\s+(?:the\s+)?(?:task\s+)?(.+)$`), domain.IntentCompleteTask, 90},
	{regexp.MustCompile(`(?i)^(?:start|begin)\s+(?:a\s+)?timer\s+(?:for\s+)?(?:the\s+)?(?:task\s+)?(.+)$`), domain.IntentStartTimer, 85},
	{regexp.MustCompile(`(?i)^(?:start working on|work on|start|begin|resume)\s+(?:the\s+)?(?:task\s+)?(.+)$`), domain.IntentStartTimer, 75},
	{regexp.MustCompile(`(?i)^(?:edit|update|change|rename|modify)\s+(?:the\s+)?(?:task\s+)?(.+)$`), domain.IntentEditTask, 85},
	{regexp.MustCompile(`(?i)^(?:delete|remove|drop)\s+(?:the\s+)?(?:task\s+)?(.+)$`), domain.IntentDeleteTask, 85},
	{regexp.MustCompile(`(?i)^(?:schedule|plan)\s+(?:the\s+)?(?:task\s+)?(.+?)(?:\s+for\s+\S.*)?$`), domain.IntentScheduleTask, 80},
	{regexp.MustCompile(`(?i)^(?:show me|show|view|open|look at|details (?:for|of))\s+(?:the\s+)?(?:task\s+)?(.+)$`), domain.IntentViewDetails, 75},
	{regexp.MustCompile(`(?i)^(?:the\s+)?task\s+(?:named|called)\s+(.+)$`), domain.IntentViewDetails, 50},
}

// ExtractTaskReference scans the pattern table for a task reference inside
// a free-form phrase. It reports false when no pattern applies, in which
// case the caller falls back to unconstrained matching.
func ExtractTaskReference(input string) (*domain.TaskReference, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, false
	}

	for _, p := range referencePatterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		ref := strings.TrimSpace(m[1])
		if ref == "" {
			continue
		}
		return &domain.TaskReference{
			Reference:  ref,
			Intent:     p.intent,
			Confidence: p.confidence,
		}, true
	}
	return nil, false
}
