package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/output"
)

var (
	feedbackTipID   string
	feedbackRule    string
	feedbackCommand string
	feedbackOutcome string
	feedbackProject string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record whether a delivered tip helped",
	Long: `Record the outcome of a tip. Outcomes are the only input that moves
rule accuracies and command success rates, so later tips improve with use.

Outcomes: helpful, not_helpful, ignored.

Example:
  tipwatch feedback --tip-id 1b4e... --rule no_tests --command /run-tests \
    --outcome helpful --project api`,
	Args: cobra.NoArgs,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackTipID, "tip-id", "", "ID of the delivered tip")
	feedbackCmd.Flags().StringVar(&feedbackRule, "rule", "", "Rule that produced the tip")
	feedbackCmd.Flags().StringVar(&feedbackCommand, "command", "", "Command the tip suggested")
	feedbackCmd.Flags().StringVar(&feedbackOutcome, "outcome", "", "helpful, not_helpful or ignored")
	feedbackCmd.Flags().StringVar(&feedbackProject, "project", "", "Project the tip was delivered for")
	for _, name := range []string{"tip-id", "rule", "command", "outcome"} {
		_ = feedbackCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	o := history.Outcome{
		TipID:            feedbackTipID,
		RuleName:         feedbackRule,
		CommandSuggested: feedbackCommand,
		Outcome:          feedbackOutcome,
		Project:          feedbackProject,
		RecordedAt:       time.Now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if err := db.RecordOutcome(ctx, o); err != nil {
		return err
	}
	if _, err := db.InvalidateStats(ctx); err != nil {
		logger.Warn("could not clear stats cache", zap.Error(err))
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(w, o)
	}
	fmt.Fprintf(w, " %s %s for %s (%s)\n",
		output.StyleSuccess.Render("Recorded"), o.Outcome, o.CommandSuggested, o.RuleName)
	return nil
}
