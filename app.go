package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/support-dispatch/agent/agents/orchestrator"
	specialistx "github.com/tanpawarit/support-dispatch/agent/agents/specialist"
	knowledgex "github.com/tanpawarit/support-dispatch/agent/knowledge"
	llmx "github.com/tanpawarit/support-dispatch/agent/llm"
	promptx "github.com/tanpawarit/support-dispatch/agent/prompt"
	routerx "github.com/tanpawarit/support-dispatch/agent/router"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
	storex "github.com/tanpawarit/support-dispatch/agent/store"
	toolx "github.com/tanpawarit/support-dispatch/agent/tool"
	configx "github.com/tanpawarit/support-dispatch/pkg/config"
	openrouterx "github.com/tanpawarit/support-dispatch/pkg/openrouter"
	qstashx "github.com/tanpawarit/support-dispatch/pkg/qstash"
	"github.com/tanpawarit/support-dispatch/pkg/telemetry"
	tokensx "github.com/tanpawarit/support-dispatch/pkg/tokens"
)

type DispatchConfig struct {
	MaxToolIterations int    `split_words:"true" default:"3"`
	HistoryTurns      int    `split_words:"true" default:"10"`
	Timezone          string `default:"America/New_York"`
}

type KnowledgeConfig struct {
	EmbeddingModel string `split_words:"true"`
}

// app holds every long-lived dependency of a command.
type app struct {
	db            *bun.DB
	repo          *storex.BunRepository
	models        *llmx.Models
	orchestrator  *orchestrator.Orchestrator
	conversations *orchestrator.Conversations
	shutdown      []func(context.Context) error
}

func (a *app) Close(ctx context.Context) {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			log.Warn().Err(err).Msg("shutdown step failed")
		}
	}
}

func openDatabase(ctx context.Context) (*bun.DB, error) {
	dbCfg, err := configx.New[storex.Config]("DB")
	if err != nil {
		return nil, err
	}
	db, err := storex.Open(ctx, *dbCfg)
	if err != nil {
		return nil, err
	}
	if err := storex.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newRetriever builds the knowledge retriever over the database. The OpenRouter embedder is
// used when an embedding model is configured, the local hash embedder otherwise.
func newRetriever(ctx context.Context, db bun.IDB) (*knowledgex.Retriever, error) {
	kCfg, err := configx.New[KnowledgeConfig]("KNOWLEDGE")
	if err != nil {
		return nil, err
	}

	store := knowledgex.NewBunStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	var embedder knowledgex.Embedder
	if model := strings.TrimSpace(kCfg.EmbeddingModel); model != "" {
		llmCfg, err := configx.New[llmx.Config]("LLM")
		if err != nil {
			return nil, err
		}
		client := openrouterx.NewClient(llmCfg.OpenRouterFor(llmx.RoleSpecialist))
		e, err := openrouterx.NewEmbedder(client, model)
		if err != nil {
			return nil, err
		}
		embedder = e
	}

	return knowledgex.NewRetriever(store, embedder)
}

func newPublisher() (toolx.Publisher, error) {
	cfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		log.Info().Str("component", "app").Msg("qstash not configured; escalations are stored only")
		return nil, nil
	}
	return qstashx.NewClient(*cfg)
}

func newSessionStore() (statex.Store, error) {
	cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		log.Info().Str("component", "app").Msg("upstash redis not configured; sessions kept in memory")
		return statex.NewMemoryStore(), nil
	}
	return statex.NewUpstashRedisStore(*cfg)
}

// buildApp wires the whole engine from configuration.
func buildApp(ctx context.Context) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	telCfg, err := configx.New[telemetry.Config]("TELEMETRY")
	if err != nil {
		return nil, err
	}
	shutdownTracing, err := telemetry.Init(*telCfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	a.shutdown = append(a.shutdown, shutdownTracing)

	dispatchCfg, err := configx.New[DispatchConfig]("DISPATCH")
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(dispatchCfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", dispatchCfg.Timezone, err)
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.shutdown = append(a.shutdown, func(context.Context) error { return db.Close() })
	a.repo = storex.NewRepository(db)

	retriever, err := newRetriever(ctx, db)
	if err != nil {
		return nil, err
	}
	publisher, err := newPublisher()
	if err != nil {
		return nil, err
	}

	gateway, err := toolx.NewDefaultGateway(toolx.Deps{
		Repo:      a.repo,
		Knowledge: retriever,
		Publisher: publisher,
		Hours:     toolx.DefaultBusinessHours(loc),
	})
	if err != nil {
		return nil, err
	}

	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, err
	}
	models, err := llmx.NewModels(ctx, *llmCfg, tokensx.NewTracker())
	if err != nil {
		return nil, err
	}
	a.models = models

	prompts := promptx.LoadPromptSet()
	classifier, err := routerx.NewClassifier(ctx, models.Classifier(), prompts.Classifier)
	if err != nil {
		return nil, err
	}
	analyzer, err := routerx.NewIntentAnalyzer(ctx, models.Intent(), prompts.Intent)
	if err != nil {
		return nil, err
	}
	runner, err := specialistx.NewRunner(models.Specialist(), gateway, prompts.Specialist, specialistx.Options{
		MaxToolIterations: dispatchCfg.MaxToolIterations,
	})
	if err != nil {
		return nil, err
	}
	registry, err := specialistx.NewRegistry(runner, gateway)
	if err != nil {
		return nil, err
	}

	a.orchestrator, err = orchestrator.New(orchestrator.Deps{
		Classifier: classifier,
		Intent:     analyzer,
		Selector:   registry,
		Runner:     registry.Runner(),
	})
	if err != nil {
		return nil, err
	}

	sessions, err := newSessionStore()
	if err != nil {
		return nil, err
	}
	a.conversations, err = orchestrator.NewConversations(a.orchestrator, sessions,
		orchestrator.WithHistoryTurns(dispatchCfg.HistoryTurns),
		orchestrator.WithChatLogger(a.repo),
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("component", "app").
		Strs("common_tools", gateway.Names("")).
		Int("max_tool_iterations", dispatchCfg.MaxToolIterations).
		Str("timezone", loc.String()).
		Msg("dispatch engine ready")

	ok = true
	return a, nil
}

// seedAll loads the demo structured data and knowledge base.
func seedAll(ctx context.Context, db *bun.DB) (int, error) {
	if err := storex.Seed(ctx, db, storex.DefaultSampleData(time.Now())); err != nil {
		return 0, err
	}
	retriever, err := newRetriever(ctx, db)
	if err != nil {
		return 0, err
	}
	return knowledgex.SeedSamples(ctx, retriever)
}
