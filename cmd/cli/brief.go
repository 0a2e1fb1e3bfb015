package main

import (
	"log/slog"

	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/repositories"
	"github.com/myrjola/briefly/internal/sqlite"
	"github.com/spf13/cobra"
)

func newBriefCmd(cfg *config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "brief <session-id>",
		Short: "Print the strategic brief of a completed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dbs, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
			if err != nil {
				return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
			}
			defer func() { _ = dbs.Close() }()

			sessions := repositories.NewSessionRepository(dbs, logger)
			b, err := sessions.GetBrief(ctx, args[0])
			if err != nil {
				return errors.Wrap(err, "load brief", slog.String("sessionID", args[0]))
			}

			printBrief(cmd.OutOrStdout(), *b)
			return nil
		},
	}
}
