package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/tipwatch/internal/output"
)

var recordMetrics string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Store a finished session in the history warehouse",
	Long: `Record a session metrics snapshot so later analyses are calibrated
against it. Recording a session ID again replaces the earlier entry.

Examples:
  tipwatch record --metrics session.json
  session-exporter | tipwatch record`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordMetrics, "metrics", "-", "Session snapshot JSON file ('-' reads stdin)")
	rootCmd.AddCommand(recordCmd)
}

type recordResult struct {
	SessionID       string `json:"session_id"`
	Project         string `json:"project"`
	ProjectSessions int    `json:"project_sessions"`
}

func runRecord(cmd *cobra.Command, args []string) error {
	m, err := readSnapshot(cmd, recordMetrics)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := recordSession(cmd, db, m); err != nil {
		return err
	}

	agg, err := db.ProjectAggregates(cmd.Context(), m.Project, 0)
	if err != nil {
		return fmt.Errorf("counting project sessions: %w", err)
	}

	res := recordResult{SessionID: m.SessionID, Project: m.Project, ProjectSessions: agg.SessionCount}
	w := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(w, res)
	}

	fmt.Fprintf(w, " %s session %s for %s (%d recorded)\n",
		output.StyleSuccess.Render("Recorded"), res.SessionID, projectLabel(res.Project), res.ProjectSessions)
	return nil
}

func projectLabel(project string) string {
	if project == "" {
		return "all projects"
	}
	return project
}
