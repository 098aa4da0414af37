package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/insightx/server/internal/api"
	"github.com/insightx/server/internal/core"
	"github.com/insightx/server/internal/grounding"
	"github.com/insightx/server/internal/insight/graph"
	"github.com/insightx/server/internal/insight/model"
	"github.com/insightx/server/internal/media"
	"github.com/insightx/server/internal/session"
	"github.com/insightx/server/internal/warehouse"
	logx "github.com/insightx/server/pkg/logger"
	pkgredis "github.com/insightx/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis         pkgredis.Config
	HTTP          api.Config
	WarehousePath string `envconfig:"WAREHOUSE_PATH" default:"data/transactions.db"`
	SessionTTL    string `envconfig:"SESSION_TTL" default:"720h"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Pipeline configs
	Intent    model.IntentModelConfig
	Chat      model.ChatModelConfig
	SQL       model.SQLModelConfig
	Synthesis model.SynthesisModelConfig
	Embedding model.EmbeddingConfig
	History   model.HistoryConfig
	Media     media.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	sessionTTL, err := time.ParseDuration(envCfg.SessionTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("session_ttl", envCfg.SessionTTL).Msg("Invalid SESSION_TTL")
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()

	clientCfg := &genai.ClientConfig{
		APIKey:  envCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if envCfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = envCfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	db, err := warehouse.Open(envCfg.WarehousePath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", envCfg.WarehousePath).Msg("Failed to open warehouse")
	}
	defer db.Close()

	store := grounding.NewStore(
		grounding.NewGeminiEmbedder(client, envCfg.Embedding.Model),
		envCfg.Embedding.TopK,
	)
	if err := store.Train(ctx, grounding.DefaultCorpus()); err != nil {
		logx.Fatal().Err(err).Msg("Failed to train grounding store")
	}

	runner, err := graph.BuildAskGraph(ctx, graph.Config{
		Client:         client,
		IntentModel:    envCfg.Intent,
		ChatModel:      envCfg.Chat,
		SQLModel:       envCfg.SQL,
		SynthesisModel: envCfg.Synthesis,
		History:        envCfg.History,
		Store:          store,
		Executor:       db,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build ask graph")
	}

	server := api.New(envCfg.HTTP,
		runner,
		session.NewStore(rdb, sessionTTL),
		media.NewProcessor(client, envCfg.Media.Model),
	)

	go func() {
		if err := server.Listen(envCfg.HTTP.Addr); err != nil {
			logx.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("Shutting down")
	if err := server.Shutdown(); err != nil {
		logx.Error().Err(err).Msg("Error during shutdown")
	}
}
