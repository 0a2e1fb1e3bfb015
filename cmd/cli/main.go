// Command cli runs discovery interviews from the terminal against the same
// engine and database as the web server.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/briefly/internal/envstruct"
	"github.com/myrjola/briefly/internal/logging"
	"github.com/spf13/cobra"
)

type config struct {
	SqliteURL    string `env:"BRIEFLY_SQLITE_URL" envDefault:"./briefly.sqlite"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	Engine       string `env:"BRIEFLY_ENGINE" envDefault:"adaptive"`
}

func main() {
	// The CLI logs to stderr so the conversation itself owns stdout.
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	_ = godotenv.Load()

	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		logger.Error("parse configuration", "error", err)
		os.Exit(1)
	}

	root := newRootCmd(cfg, logger)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "briefly-cli",
		Short:         "Run founder discovery interviews and read the resulting briefs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfg.SqliteURL, "sqlite-url", cfg.SqliteURL, "SQLite database URL")
	root.PersistentFlags().StringVar(&cfg.Engine, "engine", cfg.Engine,
		`decision engine: "adaptive" or "canonical"`)

	root.AddCommand(newInterviewCmd(&cfg, logger))
	root.AddCommand(newBriefCmd(&cfg, logger))
	return root
}
