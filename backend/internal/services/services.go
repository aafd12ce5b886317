package services

import (
	"context"
	"fmt"
	"sync"

	"fundrag/backend/internal/adapter"
	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/graph"
	"fundrag/backend/internal/knowledge"
	"fundrag/backend/pkg/config"
	apperrors "fundrag/backend/pkg/errors"
	"fundrag/backend/pkg/logger"
	"go.uber.org/zap"
)

// Services wires the knowledge store, the generator and the orchestrator
// from configuration. The server, the bot and the CLI all start from here.
type Services struct {
	Store        *knowledge.Store
	Loader       knowledge.Loader
	LLM          *adapter.LLMAdapter
	Orchestrator *agent.Orchestrator

	graph  *graph.Repository
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// Start builds every service and performs the initial knowledge base load.
// A failed initial load is logged, not returned: the store stays empty and
// questions are answered with the data-unavailable message until a reload
// succeeds. Only configuration and connection errors are fatal.
func Start(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{
		Store:  knowledge.NewStore(),
		logger: logger.Named("services"),
	}

	loader, repo, err := NewLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.Loader = loader
	s.graph = repo

	if _, err := s.Store.Reload(ctx, loader); err != nil {
		s.logger.Error("Initial knowledge base load failed, serving without data",
			zap.String("source", loader.Name()),
			zap.Error(err),
		)
	}

	s.LLM = adapter.NewLLMAdapter(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID,
		adapter.WithTemperature(cfg.LLMTemperature),
		adapter.WithMaxTokens(cfg.LLMMaxTokens),
		adapter.WithMaxRetries(cfg.LLMMaxRetries),
	)
	s.Orchestrator = agent.NewOrchestrator(s.Store, s.LLM)

	s.logger.Info("Services started",
		zap.String("source", loader.Name()),
		zap.String("model", cfg.ModelID),
		zap.Bool("data_loaded", s.Store.Current() != nil),
	)
	return s, nil
}

// NewLoader returns the loader for cfg.DataSource. For neo4j it also returns
// the repository, which owns a driver that must be closed.
func NewLoader(ctx context.Context, cfg *config.Config) (knowledge.Loader, *graph.Repository, error) {
	switch cfg.DataSource {
	case config.SourceCSV:
		return knowledge.NewCSVLoader(cfg.DataDir), nil, nil
	case config.SourceYAML:
		return knowledge.NewYAMLLoader(cfg.SnapshotFile), nil, nil
	case config.SourceNeo4j:
		repo, err := ConnectGraph(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	}
	return nil, nil, apperrors.NewConfigValidationFailed("DATA_SOURCE",
		fmt.Sprintf("unknown source %q", cfg.DataSource))
}

// ConnectGraph opens the Neo4j repository named by the config
func ConnectGraph(ctx context.Context, cfg *config.Config) (*graph.Repository, error) {
	if err := cfg.ValidateNeo4j(); err != nil {
		return nil, err
	}
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, err
	}
	return graph.NewRepository(driver), nil
}

// Close releases the graph driver, if any. Safe to call more than once.
func (s *Services) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.graph != nil {
		if err := s.graph.Close(ctx); err != nil {
			return fmt.Errorf("failed to close graph driver: %w", err)
		}
	}
	s.logger.Info("Services stopped")
	return nil
}
