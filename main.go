package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/chative-commerce-orchestrator/agent/agents/orchestrator"
	apix "github.com/tanpawarit/chative-commerce-orchestrator/agent/api"
	llmx "github.com/tanpawarit/chative-commerce-orchestrator/agent/llm"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
	toolx "github.com/tanpawarit/chative-commerce-orchestrator/agent/tool"
	tracex "github.com/tanpawarit/chative-commerce-orchestrator/agent/trace"
	configx "github.com/tanpawarit/chative-commerce-orchestrator/pkg/config"
	_ "github.com/tanpawarit/chative-commerce-orchestrator/pkg/logger/autoload"
)

const (
	storeMemory   = "memory"
	storeUpstash  = "upstash"
	storePostgres = "postgres"
	storeSQLite   = "sqlite"
)

type AppConfig struct {
	Addr                string        `split_words:"true" default:":8080"`
	StoreDriver         string        `split_words:"true" default:"memory"`
	ProductListMaxItems int           `split_words:"true" default:"20"`
	TraceTurns          bool          `split_words:"true" default:"false"`
	ShutdownTimeout     time.Duration `split_words:"true" default:"10s"`
}

func (c AppConfig) Validate() error {
	switch c.StoreDriver {
	case storeMemory, storeUpstash, storePostgres, storeSQLite:
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	mcpCfg := configx.MustNew[mcpx.Config]("MCP")

	tiers, err := llmCfg.Build(ctx)
	if err != nil {
		return err
	}

	mcpClient, err := mcpx.NewClient(*mcpCfg)
	if err != nil {
		return fmt.Errorf("create mcp client: %w", err)
	}
	executor, err := toolx.NewExecutor(mcpClient)
	if err != nil {
		return err
	}

	orchCfg := orchestratorx.Config{
		ProductListMaxItems: appCfg.ProductListMaxItems,
		PrimaryModel:        llmCfg.PrimaryModel,
		SecondaryModel:      llmCfg.SecondaryModel,
	}
	if appCfg.TraceTurns {
		orchCfg.Tracer = tracex.NewLogger(log.Logger)
	}
	orch, err := orchestratorx.New(tiers, executor, orchCfg)
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	store, closeStore, err := openStore(ctx, appCfg.StoreDriver)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			log.Warn().Err(err).Msg("close session store")
		}
	}()

	server := apix.NewServer(appCfg.Addr, orch, store,
		apix.WithHealthCheck(mcpClient),
		apix.WithLogger(log.Logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info().
		Str("store", appCfg.StoreDriver).
		Str("mcp", mcpClient.URL()).
		Str("primary_model", llmCfg.PrimaryModel).
		Msg("orchestrator ready")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(ctx context.Context, driver string) (statex.Store, io.Closer, error) {
	switch driver {
	case storeUpstash:
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create upstash store: %w", err)
		}
		return store, nopCloser{}, nil
	case storePostgres:
		cfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		store, err := statex.OpenPostgresStore(ctx, *cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, store, nil
	case storeSQLite:
		cfg := configx.MustNew[statex.SQLiteConfig]("SQLITE")
		store, err := statex.OpenSQLiteStore(ctx, *cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store, nil
	default:
		return statex.NewMemoryStore(), nopCloser{}, nil
	}
}
