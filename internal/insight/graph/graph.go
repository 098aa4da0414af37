package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"google.golang.org/genai"

	"github.com/insightx/server/internal/core/errx"
	"github.com/insightx/server/internal/grounding"
	"github.com/insightx/server/internal/insight/graph/nodes"
	"github.com/insightx/server/internal/insight/graph/observers"
	"github.com/insightx/server/internal/insight/model"
	logx "github.com/insightx/server/pkg/logger"
)

// Runner executes the compiled ask pipeline with the public AskInput.
type Runner interface {
	Ask(ctx context.Context, in model.AskInput) (*model.PipelineResponse, error)
}

// Config holds everything needed to compose the full ask graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// ChatModels and the SQL generator.
type Config struct {
	Client         *genai.Client
	IntentModel    model.IntentModelConfig
	ChatModel      model.ChatModelConfig
	SQLModel       model.SQLModelConfig
	SynthesisModel model.SynthesisModelConfig
	History        model.HistoryConfig
	Store          *grounding.Store
	Executor       nodes.QueryExecutor
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels *nodes.ChatModels
	Generator  nodes.SQLGenerator
	Executor   nodes.QueryExecutor
	History    model.HistoryConfig
}

// GraphBuilder handles the construction of the ask pipeline graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.AskInput, *model.PipelineResponse]
}

type graphRunner struct {
	runnable compose.Runnable[model.AskInput, *model.PipelineResponse]
}

// Ask validates the input and runs the pipeline. An empty question is
// rejected before any stage runs; graph failures surface as internal errors.
func (r *graphRunner) Ask(ctx context.Context, in model.AskInput) (*model.PipelineResponse, error) {
	in.Question = strings.TrimSpace(in.Question)
	if in.Question == "" {
		return nil, errx.Validation(errx.EmptyQuestionMessage)
	}

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Msg("Ask pipeline failed")
		return nil, errx.Internal(err)
	}
	if out == nil {
		return nil, errx.Internal(fmt.Errorf("pipeline returned nil response"))
	}
	return out, nil
}

// BuildAskGraph composes the ChatModels and the SQL generator, builds the
// graph, and returns a Runner.
func BuildAskGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("grounding store is nil")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("query executor is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		Client:          cfg.Client,
		IntentConfig:    &cfg.IntentModel,
		ChatConfig:      &cfg.ChatModel,
		SQLConfig:       &cfg.SQLModel,
		SynthesisConfig: &cfg.SynthesisModel,
	})
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels: cms,
		Generator:  grounding.NewGenerator(cfg.Store, cms.SQL),
		Executor:   cfg.Executor,
		History:    cfg.History,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Ask graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled ask pipeline graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.AskInput, *model.PipelineResponse], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Intent == nil ||
		config.ChatModels.Chat == nil || config.ChatModels.Synthesis == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Generator == nil {
		return nil, fmt.Errorf("sql generator is nil")
	}
	if config.Executor == nil {
		return nil, fmt.Errorf("query executor is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.AskInput, *model.PipelineResponse](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeIntentPrompt,
		nodes.NewIntentPromptNode(),
		compose.WithStatePreHandler(nodes.NewIntentPromptPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeIntentChatModel,
		b.config.ChatModels.Intent,
		compose.WithStatePostHandler(nodes.NewModelUsagePostHandler(nodes.NodeIntentChatModel, b.config.ChatModels.IntentModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeIntentParser,
		nodes.NewIntentParserNode(),
		compose.WithStatePostHandler(nodes.NewIntentParserPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeChatAssembler,
		nodes.NewChatAssemblerNode(b.config.History.ChatMaxTurns),
	)

	b.graph.AddChatModelNode(nodes.NodeChatReplyModel,
		b.config.ChatModels.Chat,
		compose.WithStatePostHandler(nodes.NewModelUsagePostHandler(nodes.NodeChatReplyModel, b.config.ChatModels.ChatModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeChatFinalizer,
		nodes.NewChatFinalizerNode(),
	)

	b.graph.AddLambdaNode(nodes.NodeSQLGenerator,
		nodes.NewSQLGeneratorNode(b.config.Generator),
		compose.WithStatePostHandler(nodes.NewSQLGeneratorPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeQueryExecutor,
		nodes.NewQueryExecutorNode(b.config.Executor),
		compose.WithStatePostHandler(nodes.NewQueryExecutorPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSynthesisAssembler,
		nodes.NewSynthesisAssemblerNode(b.config.History.SynthesisMaxTurns),
	)

	b.graph.AddChatModelNode(nodes.NodeSynthesisChatModel,
		b.config.ChatModels.Synthesis,
		compose.WithStatePostHandler(nodes.NewModelUsagePostHandler(nodes.NodeSynthesisChatModel, b.config.ChatModels.SynthesisModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeSynthesisParser,
		nodes.NewSynthesisParserNode(),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeIntentPrompt},
		{nodes.NodeIntentPrompt, nodes.NodeIntentChatModel},
		{nodes.NodeIntentChatModel, nodes.NodeIntentParser},
		{nodes.NodeChatAssembler, nodes.NodeChatReplyModel},
		{nodes.NodeChatReplyModel, nodes.NodeChatFinalizer},
		{nodes.NodeChatFinalizer, compose.END},
		{nodes.NodeSQLGenerator, nodes.NodeQueryExecutor},
		{nodes.NodeQueryExecutor, nodes.NodeSynthesisAssembler},
		{nodes.NodeSynthesisAssembler, nodes.NodeSynthesisChatModel},
		{nodes.NodeSynthesisChatModel, nodes.NodeSynthesisParser},
		{nodes.NodeSynthesisParser, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	analyticsBranch := compose.NewGraphBranch(
		nodes.NewAnalyticsCondition(),
		map[string]bool{
			nodes.NodeSQLGenerator:  true,
			nodes.NodeChatAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeIntentParser, analyticsBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding analytics branch")
		return fmt.Errorf("error adding analytics branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.AskInput, *model.PipelineResponse], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
