package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/stats"
	"github.com/blackwell-systems/tipwatch/internal/suggest"
)

// AnalysisMethod names the confidence model in structured reports.
const AnalysisMethod = "tiered_statistical"

// Report is the structured rendering of one analysis.
type Report struct {
	SessionID string      `json:"session_id"`
	Project   string      `json:"project"`
	Analysis  Analysis    `json:"analysis"`
	Tips      []ReportTip `json:"tips"`

	Benchmarks []stats.BenchmarkComparison `json:"benchmarks,omitempty"`
}

// Analysis describes the history the tips were calibrated against.
type Analysis struct {
	SessionsAnalyzed int    `json:"sessions_analyzed"`
	DataSource       string `json:"data_source"`
	Method           string `json:"method"`
}

// ReportTip is one tip in a Report.
type ReportTip struct {
	ID         string  `json:"id,omitempty"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	Command    string  `json:"command"`
	Evidence   string  `json:"evidence"`
	Category   string  `json:"category"`
	Rationale  string  `json:"rationale"`
	RuleName   string  `json:"rule_name"`
}

// BuildReport assembles the structured record for an analysis. Tips keep
// their ranked order; an empty list encodes as [] rather than null.
func BuildReport(sessionID, project string, h history.HistoricalStats, tips []suggest.Tip) Report {
	r := Report{
		SessionID: sessionID,
		Project:   project,
		Analysis: Analysis{
			SessionsAnalyzed: h.SessionCount,
			DataSource:       h.DataSource,
			Method:           AnalysisMethod,
		},
		Tips: make([]ReportTip, 0, len(tips)),
	}
	for _, t := range tips {
		r.Tips = append(r.Tips, ReportTip{
			ID:         t.ID,
			Confidence: t.Confidence,
			Message:    t.Message,
			Command:    t.Command,
			Evidence:   t.Evidence,
			Category:   t.Category,
			Rationale:  t.Rationale,
			RuleName:   t.RuleName,
		})
	}
	return r
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderTips writes the ranked tip block followed by a one-line summary.
func RenderTips(w io.Writer, tips []suggest.Tip, h history.HistoricalStats, rulesMatched int) error {
	var sb strings.Builder

	sb.WriteString(Section("Recommendations"))
	sb.WriteString("\n\n")

	if len(tips) == 0 {
		sb.WriteString(" No tips. Nothing in this session stands out.\n")
	}

	for i, t := range tips {
		fmt.Fprintf(&sb, " %s %s  %s\n",
			StyleBold.Render(fmt.Sprintf("%d.", i+1)),
			ConfidenceBar(t.Confidence, 10),
			StyleMuted.Render(t.Category))
		fmt.Fprintf(&sb, "    %s\n", t.Message)
		fmt.Fprintf(&sb, "    %s%s\n", StyleLabel.Render("Run:"), StyleCommand.Render(t.Command))
		fmt.Fprintf(&sb, "    %s%s\n", StyleLabel.Render("Evidence:"), t.Evidence)
		if t.Rationale != "" {
			fmt.Fprintf(&sb, "    %s%s\n", StyleLabel.Render("Why:"), StyleMuted.Render(t.Rationale))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, " %s\n", StyleMuted.Render(summary(len(tips), rulesMatched, h)))
	if h.SessionCount == 0 {
		fmt.Fprintf(&sb, " %s\n", StyleWarning.Render(
			"Note: no recorded history yet, so confidence uses industry defaults. "+
				"Run `tipwatch record` after each session to calibrate."))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func summary(tips, rulesMatched int, h history.HistoricalStats) string {
	s := fmt.Sprintf("%d tip(s) from %d matched rule(s)", tips, rulesMatched)
	if h.SessionCount > 0 {
		s += fmt.Sprintf(", calibrated on %d %s session(s)", h.SessionCount, sourceLabel(h.DataSource))
	}
	return s
}

func sourceLabel(source string) string {
	switch source {
	case history.SourceProject:
		return "project"
	case history.SourceCrossProject:
		return "cross-project"
	}
	return source
}

// RenderBreakdown writes the per-factor confidence for each tip. It backs
// the --verbose view of analyze.
func RenderBreakdown(w io.Writer, tips []suggest.Tip, breakdowns map[string]suggest.ConfidenceBreakdown) error {
	tbl := NewTable("Rule", "z", "Stat", "Sample", "Accuracy", "Context", "Penalty", "Final")
	for _, t := range tips {
		b, ok := breakdowns[t.RuleName]
		if !ok {
			continue
		}
		tbl.AddRow(t.RuleName,
			fmt.Sprintf("%.2f", b.ZScore),
			fmt.Sprintf("%.2f", b.Statistical),
			fmt.Sprintf("%.2f", b.Sample),
			fmt.Sprintf("%.2f", b.RuleAccuracy),
			fmt.Sprintf("%.2f", b.Context),
			fmt.Sprintf("%.2f", b.Penalty),
			fmt.Sprintf("%.2f", b.Final))
	}
	if _, err := fmt.Fprintln(w, Section("Confidence breakdown")); err != nil {
		return err
	}
	return tbl.Fprint(w)
}
