package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
	"github.com/blackwell-systems/tipwatch/internal/output"
	"github.com/blackwell-systems/tipwatch/internal/suggest"
)

// ErrNoStore is returned by write tools when the server runs without a
// history database.
var ErrNoStore = errors.New("no history database configured")

// Recorder persists sessions and tip outcomes.
type Recorder interface {
	history.OutcomeRecorder
	RecordSession(ctx context.Context, m metrics.SessionMetrics) error
	InvalidateStats(ctx context.Context) (int64, error)
}

// Options wires a Server to the tip pipeline.
type Options struct {
	Engine       *suggest.Engine
	Resolver     *history.Resolver
	Recorder     Recorder // optional; write tools fail without it
	LookbackDays int
	Version      string
	Logger       *zap.Logger
}

// Server is an MCP stdio server exposing the tip pipeline as tools.
type Server struct {
	tools    []toolDef
	engine   *suggest.Engine
	resolver *history.Resolver
	recorder Recorder
	days     int
	version  string
	logger   *zap.Logger
}

// NewServer constructs a Server with the tipwatch tools registered.
func NewServer(opts Options) *Server {
	s := &Server{
		engine:   opts.Engine,
		resolver: opts.Resolver,
		recorder: opts.Recorder,
		days:     opts.LookbackDays,
		version:  opts.Version,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.engine == nil {
		s.engine = suggest.NewEngine(nil)
	}
	if s.resolver == nil {
		s.resolver = history.NewResolver(history.ResolverConfig{Logger: s.logger})
	}
	if s.version == "" {
		s.version = "dev"
	}
	addTools(s)
	return s
}

const metricsSchema = `{"type":"object","description":"Session metrics snapshot","properties":{` +
	`"session_id":{"type":"string"},"project":{"type":"string"},` +
	`"tool_calls":{"type":"integer"},"errors":{"type":"integer"},` +
	`"file_edits":{"type":"integer"},"reworks":{"type":"integer"},` +
	`"test_runs":{"type":"integer"},"tests_passed":{"type":"integer"},` +
	`"agent_spawns":{"type":"integer"},"agent_successes":{"type":"integer"},` +
	`"max_task_iterations":{"type":"integer"},"lines_changed":{"type":"integer"},` +
	`"files_modified":{"type":"integer"},"max_file_edits":{"type":"integer"},` +
	`"max_file_reworks":{"type":"integer"},"most_churned_file":{"type":"string"},` +
	`"recently_failed_commands":{"type":"array","items":{"type":"string"}}}}`

var (
	metricsArgsSchema = json.RawMessage(`{"type":"object","properties":{"metrics":` + metricsSchema + `},"required":["metrics"]}`)

	feedbackSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"tip_id":{"type":"string"},"rule_name":{"type":"string"},"command":{"type":"string"},` +
		`"outcome":{"type":"string","enum":["helpful","not_helpful","ignored"]},"project":{"type":"string"}},` +
		`"required":["tip_id","rule_name","command","outcome"]}`)

	projectSchema = json.RawMessage(`{"type":"object","properties":{"project":{"type":"string","description":"Project name; empty for all projects"}}}`)
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_tips",
		Description: "Ranked corrective commands for the current session, each with confidence and evidence.",
		InputSchema: metricsArgsSchema,
		Handler:     s.handleGetTips,
	})
	s.registerTool(toolDef{
		Name:        "record_session",
		Description: "Store a finished session so future tips are calibrated against it.",
		InputSchema: metricsArgsSchema,
		Handler:     s.handleRecordSession,
	})
	s.registerTool(toolDef{
		Name:        "record_feedback",
		Description: "Record whether a delivered tip was helpful, not helpful or ignored.",
		InputSchema: feedbackSchema,
		Handler:     s.handleRecordFeedback,
	})
	s.registerTool(toolDef{
		Name:        "get_stats",
		Description: "Resolved historical baseline and recent-versus-all-time windows for a project.",
		InputSchema: projectSchema,
		Handler:     s.handleGetStats,
	})
}

type metricsArgs struct {
	Metrics *metrics.SessionMetrics `json:"metrics"`
}

func decodeMetrics(args json.RawMessage) (metrics.SessionMetrics, error) {
	var a metricsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return metrics.SessionMetrics{}, fmt.Errorf("decoding arguments: %w", err)
	}
	if a.Metrics == nil {
		return metrics.SessionMetrics{}, metrics.ErrEmptySnapshot
	}
	return *a.Metrics, nil
}

func (s *Server) handleGetTips(ctx context.Context, args json.RawMessage) (any, error) {
	m, err := decodeMetrics(args)
	if err != nil {
		return nil, err
	}
	h := s.resolver.Resolve(ctx, m.Project, s.days)
	res := s.engine.Run(m, h)
	return output.BuildReport(m.SessionID, m.Project, h, res.Tips), nil
}

// RecordSessionResult is the reply to record_session.
type RecordSessionResult struct {
	SessionID string `json:"session_id"`
	Project   string `json:"project"`
	Recorded  bool   `json:"recorded"`
}

func (s *Server) handleRecordSession(ctx context.Context, args json.RawMessage) (any, error) {
	if s.recorder == nil {
		return nil, ErrNoStore
	}
	m, err := decodeMetrics(args)
	if err != nil {
		return nil, err
	}
	if err := s.recorder.RecordSession(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return RecordSessionResult{SessionID: m.SessionID, Project: m.Project, Recorded: true}, nil
}

type feedbackArgs struct {
	TipID    string `json:"tip_id"`
	RuleName string `json:"rule_name"`
	Command  string `json:"command"`
	Outcome  string `json:"outcome"`
	Project  string `json:"project"`
}

func (s *Server) handleRecordFeedback(ctx context.Context, args json.RawMessage) (any, error) {
	if s.recorder == nil {
		return nil, ErrNoStore
	}
	var a feedbackArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	o := history.Outcome{
		TipID:            a.TipID,
		RuleName:         a.RuleName,
		CommandSuggested: a.Command,
		Outcome:          a.Outcome,
		Project:          a.Project,
		RecordedAt:       time.Now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.recorder.RecordOutcome(ctx, o); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return o, nil
}

// StatsResult is the reply to get_stats.
type StatsResult struct {
	Project string                  `json:"project"`
	History history.HistoricalStats `json:"history"`
	Windows history.WindowedStats   `json:"windows"`
}

func (s *Server) handleGetStats(ctx context.Context, args json.RawMessage) (any, error) {
	var a struct {
		Project string `json:"project"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	return StatsResult{
		Project: a.Project,
		History: s.resolver.Resolve(ctx, a.Project, s.days),
		Windows: s.resolver.ResolveWindows(ctx, a.Project),
	}, nil
}

func (s *Server) invalidate(ctx context.Context) {
	if _, err := s.recorder.InvalidateStats(ctx); err != nil {
		s.logger.Warn("could not clear stats cache", zap.Error(err))
	}
}
