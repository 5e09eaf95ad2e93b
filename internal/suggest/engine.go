// Package suggest layers categorization heuristics on parsed statement
// rows: rule-backed category suggestions with a keyword fallback,
// subscription recognition, and transfer-pair detection.
package suggest

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/rules"
)

// KeywordMapping maps a description keyword to a category name. The table
// is ordered; the first matching keyword wins.
type KeywordMapping struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// Engine computes suggestions for draft rows. It holds no repository
// handles; callers pass the active rules, categories and subscriptions in.
type Engine struct {
	keywords []KeywordMapping
	log      zerolog.Logger
}

// New creates an Engine with an ordered keyword-to-category table.
func New(keywords []KeywordMapping, log zerolog.Logger) *Engine {
	return &Engine{keywords: keywords, log: log}
}

// Annotate fills the suggestion fields of every row in place. Rows must
// belong to one file; transfer pairing never crosses files.
func (e *Engine) Annotate(rows []model.DraftRow, active []model.Rule, categories []model.Category, subs []model.Subscription) {
	catsByID := make(map[string]model.Category, len(categories))
	catsByName := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		catsByID[c.ID] = c
		catsByName[strings.ToLower(c.Name)] = c
	}
	subsByID := make(map[string]model.Subscription, len(subs))
	for _, s := range subs {
		subsByID[s.ID] = s
	}

	for i := range rows {
		row := &rows[i]

		match := rules.Best(active, row.Description, row.Amount, row.Date)
		if match != nil {
			row.RuleApplied = true
			row.RuleType = match.RuleType
			row.RuleSummary = match.Reason
			e.log.Debug().Str("description", row.Description).Str("rule", match.Rule.ID).
				Float64("score", match.Score).Msg("rule matched")
		}

		row.Category = e.suggestCategory(row, match, catsByID, catsByName)
		row.Subscription = e.suggestSubscription(row, match, subs, subsByID)
	}

	MatchTransfers(rows)
}
