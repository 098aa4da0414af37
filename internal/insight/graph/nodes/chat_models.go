package nodes

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/insightx/server/internal/insight/model"
	logx "github.com/insightx/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Client          *genai.Client
	IntentConfig    *model.IntentModelConfig
	ChatConfig      *model.ChatModelConfig
	SQLConfig       *model.SQLModelConfig
	SynthesisConfig *model.SynthesisModelConfig
}

// ChatModels holds one model per pipeline stage. Fields are the base
// interface so tests can substitute stubs.
type ChatModels struct {
	Intent    einomodel.BaseChatModel
	Chat      einomodel.BaseChatModel
	SQL       einomodel.BaseChatModel
	Synthesis einomodel.BaseChatModel

	IntentModelName    string
	ChatModelName      string
	SQLModelName       string
	SynthesisModelName string
}

// NewChatModels creates the four stage models against a shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}

	build := func(name string, modelName string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      config.Client,
			Model:       modelName,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Str("stage", name).Msg("Error creating chat model")
			return nil, fmt.Errorf("error creating %s model: %w", name, err)
		}
		return cm, nil
	}

	intent, err := build("intent", config.IntentConfig.Model, config.IntentConfig.Temperature, config.IntentConfig.MaxTokens)
	if err != nil {
		return nil, err
	}
	chat, err := build("chat", config.ChatConfig.Model, config.ChatConfig.Temperature, config.ChatConfig.MaxTokens)
	if err != nil {
		return nil, err
	}
	sqlModel, err := build("sql", config.SQLConfig.Model, config.SQLConfig.Temperature, config.SQLConfig.MaxTokens)
	if err != nil {
		return nil, err
	}
	synthesis, err := build("synthesis", config.SynthesisConfig.Model, config.SynthesisConfig.Temperature, config.SynthesisConfig.MaxTokens)
	if err != nil {
		return nil, err
	}

	return &ChatModels{
		Intent:             intent,
		Chat:               chat,
		SQL:                sqlModel,
		Synthesis:          synthesis,
		IntentModelName:    config.IntentConfig.Model,
		ChatModelName:      config.ChatConfig.Model,
		SQLModelName:       config.SQLConfig.Model,
		SynthesisModelName: config.SynthesisConfig.Model,
	}, nil
}
