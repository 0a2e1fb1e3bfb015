package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/engine"
	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/interview"
	"github.com/myrjola/briefly/internal/models"
	"github.com/myrjola/briefly/internal/repositories"
	"github.com/myrjola/briefly/internal/sqlite"
	"github.com/spf13/cobra"
)

func newInterviewCmd(cfg *config, logger *slog.Logger) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Start or resume an interactive discovery interview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInterview(cmd, cfg, logger, sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume an existing session by ID")
	return cmd
}

func runInterview(cmd *cobra.Command, cfg *config, logger *slog.Logger, sessionID string) error {
	ctx := cmd.Context()

	dbs, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() { _ = dbs.Close() }()

	sessions := repositories.NewSessionRepository(dbs, logger)
	llm := ai.NewResilientClient(ai.NewClient(cfg.OpenAIAPIKey), ai.DefaultRetryPolicy(), logger)
	var decider interview.DecisionEngine = interview.NewCanonicalEngine()
	if cfg.Engine == "adaptive" {
		decider = interview.NewAdaptiveEngine(llm, logger)
	}
	orchestrator := engine.New(sessions, llm, decider, logger)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Tell me about yourself and your business. Type your answers; an empty line quits.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Fprintln(out, "Goodbye! Resume any time with --session", sessionID)
			return nil
		}

		resp, err := orchestrator.ProcessTurn(ctx, engine.TurnRequest{
			SessionID: sessionID,
			UserInput: input,
		})
		if err != nil {
			return errors.Wrap(err, "process turn")
		}
		sessionID = resp.SessionID

		fmt.Fprintln(out)
		fmt.Fprintln(out, resp.Message)
		if resp.Action == engine.ActionComplete && resp.Brief != nil {
			fmt.Fprintln(out)
			printBrief(out, *resp.Brief)
			return nil
		}
		if resp.Action == engine.ActionHandoff {
			return nil
		}
	}
}

func printBrief(out io.Writer, b models.Brief) {
	fmt.Fprintln(out, b.Opening)
	for _, section := range b.Sections {
		fmt.Fprintf(out, "\n## %s\n\n%s\n", section.Title, section.Content)
	}
}
