package app

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/mcp"
	"github.com/blackwell-systems/tipwatch/internal/suggest"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server for coding agents",
	Long: `Start a Model Context Protocol stdio server so an agent can ask for
tips during a session. The server exposes four tools:

  get_tips         Ranked tips for a session metrics snapshot
  record_session   Store a finished session
  record_feedback  Record whether a tip helped
  get_stats        Historical baseline and recent windows

Example agent configuration:
  {"mcpServers":{"tipwatch":{"command":"tipwatch","args":["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	opts := mcp.Options{
		Engine:       suggest.NewEngine(reg, suggest.WithLogger(logger), suggest.WithMaxTips(cfg.MaxTips)),
		LookbackDays: cfg.LookbackDays,
		Version:      appVersion,
		Logger:       logger,
	}

	db, err := openStore()
	if err != nil {
		logger.Warn("history unavailable, serving industry defaults", zap.Error(err))
		opts.Resolver = newResolver(nil)
	} else {
		defer func() { _ = db.Close() }()
		opts.Resolver = newResolver(db)
		opts.Recorder = db
	}

	return mcp.NewServer(opts).Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}
