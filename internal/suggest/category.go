package suggest

import (
	"fmt"
	"strings"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/rules"
)

const (
	ruleCategoryConfidence = 0.95
	keywordConfidence      = 0.65
	fallbackConfidence     = 0.30
)

// suggestCategory always returns a suggestion: a rule lock, a keyword hit,
// or the low-confidence fallback.
func (e *Engine) suggestCategory(row *model.DraftRow, match *rules.Match, catsByID, catsByName map[string]model.Category) *model.CategorySuggestion {
	if match != nil && match.Rule.CategoryID != nil {
		s := &model.CategorySuggestion{
			CategoryID: *match.Rule.CategoryID,
			Confidence: ruleCategoryConfidence,
			Reason:     "rule: " + match.Reason,
		}
		if c, ok := catsByID[s.CategoryID]; ok {
			s.CategoryName = c.Name
		}
		return s
	}

	lower := strings.ToLower(row.Description)
	for _, kw := range e.keywords {
		if kw.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw.Keyword)) {
			s := &model.CategorySuggestion{
				CategoryName: kw.Category,
				Confidence:   keywordConfidence,
				Reason:       fmt.Sprintf("keyword %q", kw.Keyword),
			}
			if c, ok := catsByName[strings.ToLower(kw.Category)]; ok {
				s.CategoryID = c.ID
			}
			return s
		}
	}

	return &model.CategorySuggestion{
		Confidence: fallbackConfidence,
		Reason:     fmt.Sprintf("no signal for %s", row.Amount.StringFixed(2)),
	}
}
