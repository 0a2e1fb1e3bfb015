package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/engine"
	"github.com/myrjola/briefly/internal/envstruct"
	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/interview"
	"github.com/myrjola/briefly/internal/logging"
	"github.com/myrjola/briefly/internal/pprofserver"
	"github.com/myrjola/briefly/internal/repositories"
	"github.com/myrjola/briefly/internal/sqlite"
)

type application struct {
	logger         *slog.Logger
	engine         *engine.Orchestrator
	sessions       *repositories.SessionRepository
	sessionManager *scs.SessionManager
}

type config struct {
	// Addr is the address the API server listens on.
	Addr string `env:"BRIEFLY_ADDR" envDefault:"localhost:4000"`
	// PprofPort is the localhost-only port for the profiling endpoints.
	PprofPort string `env:"BRIEFLY_PPROF_PORT" envDefault:":6060"`
	// SqliteURL is the database location. ":memory:" runs without a file.
	SqliteURL string `env:"BRIEFLY_SQLITE_URL" envDefault:"./briefly.sqlite"`
	// OpenAIAPIKey authenticates against the text-generation vendor.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	// Engine selects the decision engine: "adaptive" follows up on rich
	// answers, "canonical" walks the fixed backbone only.
	Engine string `env:"BRIEFLY_ENGINE" envDefault:"adaptive"`
}

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})))

	// A missing .env file is fine outside local development.
	_ = godotenv.Load()

	ctx := context.Background()
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server failed", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	pprofserver.Launch(cfg.PprofPort, logger)

	dbs, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := dbs.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()
	go dbs.StartOptimizer(ctx)

	sessions := repositories.NewSessionRepository(dbs, logger)

	llm := ai.NewResilientClient(ai.NewClient(cfg.OpenAIAPIKey), ai.DefaultRetryPolicy(), logger)
	var decider interview.DecisionEngine = interview.NewCanonicalEngine()
	if cfg.Engine == "adaptive" {
		decider = interview.NewAdaptiveEngine(llm, logger)
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	app := application{
		logger:         logger,
		engine:         engine.New(sessions, llm, decider, logger),
		sessions:       sessions,
		sessionManager: sessionManager,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}
