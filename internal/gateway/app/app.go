package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"flowsmith/internal/catalog"
	"flowsmith/internal/dialogue"
	"flowsmith/internal/flowgraph"
	"flowsmith/internal/gateway/config"
	"flowsmith/internal/gateway/handler"
	"flowsmith/internal/gateway/server"
	"flowsmith/internal/interpret"
	"flowsmith/internal/llm"
	"flowsmith/internal/llmclient"
	"flowsmith/internal/session"
)

type App struct {
	server *server.Server
	llm    llmclient.LLMClient
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	kb, err := newKnowledgeBase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open component catalog: %w", err)
	}
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	client = llm.Chain(client,
		llm.Logging("interpreter"),
		llm.Retry(cfg.LLM.MaxAttempts, cfg.LLM.RetryBase),
		llm.Timeout(cfg.LLM.Timeout),
	)

	interp := interpret.New(kb, client)
	store := newSessionStore(cfg)
	mgr := dialogue.NewManager(interp, store, cfg.Dialogue.MaxTurns)
	builder := flowgraph.NewBuilder(kb)

	flowHandler := handler.NewFlowHandler(mgr, builder)

	// Routing & Server
	mux := server.NewMux(flowHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		llm:    client,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.llm.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newKnowledgeBase(cfg *config.Config) (catalog.KnowledgeBase, error) {
	switch cfg.Catalog.Source {
	case "", "builtin":
		return catalog.BuiltinCatalog(), nil
	case "file":
		if cfg.Catalog.Path == "" {
			return nil, fmt.Errorf("CATALOG_PATH is required when CATALOG_SOURCE=file")
		}
		kb, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		return kb, nil
	case "postgres":
		if cfg.Catalog.DatabaseURL == "" {
			return nil, fmt.Errorf("CATALOG_DATABASE_URL is required when CATALOG_SOURCE=postgres")
		}
		kb, err := catalog.OpenPostgres(cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return catalog.NewCachedKB(kb, 256, cfg.Catalog.CacheTTL), nil
	case "s3":
		kb, err := catalog.NewS3KB(catalog.S3Config{
			Endpoint:  cfg.Catalog.S3.Endpoint,
			Region:    cfg.Catalog.S3.Region,
			AccessKey: cfg.Catalog.S3.AccessKey,
			SecretKey: cfg.Catalog.S3.SecretKey,
			Bucket:    cfg.Catalog.S3.Bucket,
			Object:    cfg.Catalog.S3.Object,
			UseSSL:    cfg.Catalog.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return catalog.NewCachedKB(kb, 256, cfg.Catalog.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llmclient.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := llmclient.NewGeminiClient(ctx, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "groq":
		client, err := llmclient.NewGroqClient("", cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "", "fake":
		return llmclient.NewFakeClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

func newSessionStore(cfg *config.Config) session.Store {
	if cfg.Session.RedisAddr == "" {
		return session.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Session.RedisAddr,
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})
	return session.NewRedisStore(client, cfg.Dialogue.SessionTTL)
}
