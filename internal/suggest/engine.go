package suggest

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
	"github.com/blackwell-systems/tipwatch/internal/registry"
)

// tipNamespace seeds deterministic tip IDs so repeated runs agree.
var tipNamespace = uuid.MustParse("8f1c7a52-3d4e-5b6f-9a0b-1c2d3e4f5a6b")

// Engine evaluates the rule catalog against a session and assembles the
// ranked tip list. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	rules    []PatternRule
	registry *registry.Registry
	logger   *zap.Logger
	maxTips  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report skipped rules.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRules replaces the built-in rule catalog.
func WithRules(rules []PatternRule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithMaxTips overrides MaxTips. Values outside 1..MaxTips are ignored.
func WithMaxTips(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= MaxTips {
			e.maxTips = n
		}
	}
}

// NewEngine creates an engine over reg with the built-in rules. A nil reg
// sends every rule to its fallback command.
func NewEngine(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		rules:    Rules,
		registry: reg,
		logger:   zap.NewNop(),
		maxTips:  MaxTips,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates every rule and returns the ranked, deduplicated, capped tips.
// It never fails: a rule that errors is logged and left out.
func (e *Engine) Run(m metrics.SessionMetrics, h history.HistoricalStats) Result {
	var res Result
	var tips []Tip

	for _, rule := range e.rules {
		match, ok, err := EvaluateRule(rule, m, h)
		if err != nil {
			res.RulesFailed++
			e.logger.Warn("rule evaluation failed", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		res.RulesMatched++

		tip, err := e.buildTip(match, m, h)
		if err != nil {
			res.RulesFailed++
			e.logger.Warn("tip assembly failed", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		tips = append(tips, tip)
	}

	res.Tips = RankTips(tips, e.maxTips)
	e.logger.Debug("engine run complete",
		zap.String("session", m.SessionID),
		zap.Int("matched", res.RulesMatched),
		zap.Int("tips", len(res.Tips)))
	return res
}

func (e *Engine) buildTip(match Match, m metrics.SessionMetrics, h history.HistoricalStats) (tip Tip, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	rule := match.Rule
	sel := SelectCommand(e.registry, rule.Category, rule.FallbackCommand, m, h)
	conf := CalculateConfidence(rule, m, h)

	return Tip{
		ID:         TipID(m.SessionID, rule.Name, sel.Command),
		RuleName:   rule.Name,
		Message:    match.Message,
		Command:    sel.Command,
		Confidence: conf.Final,
		Evidence:   rule.Evidence,
		Category:   rule.Category,
		Rationale:  sel.Rationale,
	}, nil
}

// TipID derives a stable identifier for a tip from its session, rule and command.
func TipID(sessionID, rule, command string) string {
	return uuid.NewSHA1(tipNamespace, []byte(sessionID+"\x00"+rule+"\x00"+command)).String()
}

// Rules returns the catalog the engine evaluates.
func (e *Engine) Rules() []PatternRule {
	return e.rules
}
