// Package suggest provides the recommendation engine: the pattern rule
// catalog, confidence calculation, command selection, and tip assembly.
package suggest

import (
	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
)

// Rule categories. Each maps to a command registry category.
const (
	CategorySafety    = "safety"
	CategoryPlanning  = "planning"
	CategoryQuality   = "quality"
	CategoryDiagnosis = "diagnosis"
)

// MaxTips caps the number of tips returned by Engine.Run.
const MaxTips = 5

// Tip is one ranked recommendation.
type Tip struct {
	ID         string  `json:"id"`
	RuleName   string  `json:"rule_name"`
	Message    string  `json:"message"`
	Command    string  `json:"command"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
	Category   string  `json:"category"`
	Rationale  string  `json:"rationale"`
}

// Predicate reports whether a rule's pattern is present in the session.
type Predicate func(m metrics.SessionMetrics, h history.HistoricalStats) bool

// MessageBuilder renders the user-facing message for a matched rule.
type MessageBuilder func(m metrics.SessionMetrics, h history.HistoricalStats) string

// PatternRule is one entry of the rule catalog.
type PatternRule struct {
	Name            string
	Category        string
	Evidence        string
	Matches         Predicate
	Message         MessageBuilder
	FallbackCommand string

	// ZMetric names the session ratio whose z-score against history drives
	// statistical confidence. Empty for threshold-only rules.
	ZMetric string
}

// Match is a rule that fired, with its rendered message.
type Match struct {
	Rule    PatternRule
	Message string
}

// Result is the output of one engine run.
type Result struct {
	Tips []Tip `json:"tips"`

	// RulesMatched counts rules that fired before dedup and truncation.
	RulesMatched int `json:"rules_matched"`

	// RulesFailed counts rules skipped because evaluation failed.
	RulesFailed int `json:"rules_failed"`
}
