package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/insightx/server/internal/insight/graph/parsers"
	"github.com/insightx/server/internal/insight/graph/prompts"
	"github.com/insightx/server/internal/insight/model"
	logx "github.com/insightx/server/pkg/logger"
)

// Node keys for the ask graph.
const (
	NodeIntentPrompt       = "IntentPrompt"
	NodeIntentChatModel    = "IntentChatModel"
	NodeIntentParser       = "IntentParser"
	NodeChatAssembler      = "ChatAssembler"
	NodeChatReplyModel     = "ChatReplyModel"
	NodeChatFinalizer      = "ChatFinalizer"
	NodeSQLGenerator       = "SQLGenerator"
	NodeQueryExecutor      = "QueryExecutor"
	NodeSynthesisAssembler = "SynthesisAssembler"
	NodeSynthesisChatModel = "SynthesisChatModel"
	NodeSynthesisParser    = "SynthesisParser"
)

// SQLGenerator produces a tagged statement for a natural-language question.
type SQLGenerator interface {
	Generate(ctx context.Context, question string) (model.GeneratedSQL, error)
}

// QueryExecutor runs a statement against the warehouse.
type QueryExecutor interface {
	Query(ctx context.Context, stmt string) (*model.Table, error)
}

// NewIntentPromptPreHandler seeds the graph state from the public input.
func NewIntentPromptPreHandler() func(context.Context, model.AskInput, *model.AppState) (model.AskInput, error) {
	return func(ctx context.Context, in model.AskInput, s *model.AppState) (model.AskInput, error) {
		s.Question = strings.TrimSpace(in.Question)
		s.History = in.History
		return in, nil
	}
}

// NewIntentPromptNode renders the one-word yes/no guardrail prompt.
func NewIntentPromptNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.AskInput) ([]*schema.Message, error) {
		content, err := prompts.RenderIntent(ctx, strings.TrimSpace(in.Question))
		if err != nil {
			return nil, fmt.Errorf("render intent prompt: %w", err)
		}
		return []*schema.Message{schema.UserMessage(content)}, nil
	})
}

// NewModelUsagePostHandler logs token usage reported by a model node.
func NewModelUsagePostHandler(node, modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			logx.Debug().
				Str("node", node).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Msg("LLM usage")
		}
		return out, nil
	}
}

// NewIntentParserNode interprets the guardrail completion into a routing flag.
func NewIntentParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (bool, error) {
		if resp == nil {
			return false, fmt.Errorf("intent model returned nil message")
		}
		return parsers.ParseIntent(resp.Content), nil
	})
}

// NewIntentParserPostHandler saves the classification outcome to state.
func NewIntentParserPostHandler() func(context.Context, bool, *model.AppState) (bool, error) {
	return func(ctx context.Context, out bool, state *model.AppState) (bool, error) {
		state.DataQuestion = out
		logx.Debug().
			Bool("data_question", out).
			Msg("Question classified")
		return out, nil
	}
}

// NewAnalyticsCondition routes data questions to SQL generation and
// everything else to the conversational path.
func NewAnalyticsCondition() func(context.Context, bool) (string, error) {
	return func(ctx context.Context, dataQuestion bool) (string, error) {
		if dataQuestion {
			return NodeSQLGenerator, nil
		}
		return NodeChatAssembler, nil
	}
}

// NewChatAssemblerNode builds the conversational context: persona system
// prompt, trimmed history, then the question.
func NewChatAssemblerNode(maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ bool) ([]*schema.Message, error) {
		var question string
		var history []model.ChatTurn
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			question = state.Question
			history = trimTail(state.History, maxTurns)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		systemPrompt, err := prompts.RenderChatSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render chat prompt: %w", err)
		}

		messages := make([]*schema.Message, 0, 2+len(history))
		messages = append(messages, schema.SystemMessage(systemPrompt))
		messages = append(messages, turnsToMessages(history)...)
		messages = append(messages, schema.UserMessage(question))
		return messages, nil
	})
}

// NewChatFinalizerNode shapes the conversational reply into the common
// response: no SQL, no data, and the fixed nudge follow-ups.
func NewChatFinalizerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (*model.PipelineResponse, error) {
		if reply == nil {
			return nil, fmt.Errorf("chat model returned nil message")
		}
		var question string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			question = state.Question
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return &model.PipelineResponse{
			Question:          question,
			SQL:               "",
			Data:              []model.Row{},
			Answer:            strings.TrimSpace(reply.Content),
			FollowUpQuestions: append([]string(nil), model.ConversationalFollowUps...),
		}, nil
	})
}

// NewSQLGeneratorNode wraps retrieval-augmented generation as a graph node.
func NewSQLGeneratorNode(gen SQLGenerator) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ bool) (model.GeneratedSQL, error) {
		var question string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			question = state.Question
			return nil
		})
		if err != nil {
			return model.NoSQL(), fmt.Errorf("failed to access state: %w", err)
		}
		return gen.Generate(ctx, question)
	})
}

// NewSQLGeneratorPostHandler saves the tagged statement to state.
func NewSQLGeneratorPostHandler() func(context.Context, model.GeneratedSQL, *model.AppState) (model.GeneratedSQL, error) {
	return func(ctx context.Context, out model.GeneratedSQL, state *model.AppState) (model.GeneratedSQL, error) {
		state.SQL = out
		return out, nil
	}
}

// NewQueryExecutorNode runs the generated statement. Statements that are not
// executable never reach the warehouse, and execution failures degrade to a
// nil table rather than aborting the pipeline.
func NewQueryExecutorNode(exec QueryExecutor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, sql model.GeneratedSQL) (*model.Table, error) {
		if !sql.Executable() {
			logx.Debug().Msg("Skipping execution for non-executable statement")
			return nil, nil
		}
		table, err := exec.Query(ctx, sql.Statement)
		if err != nil {
			logx.Warn().
				Err(err).
				Str("sql", sql.Statement).
				Msg("Query failed, continuing without data")
			return nil, nil
		}
		return table, nil
	})
}

// NewQueryExecutorPostHandler saves the result table to state.
func NewQueryExecutorPostHandler() func(context.Context, *model.Table, *model.AppState) (*model.Table, error) {
	return func(ctx context.Context, out *model.Table, state *model.AppState) (*model.Table, error) {
		state.Table = out
		return out, nil
	}
}

// NewSynthesisAssemblerNode builds the synthesis context: analyst system
// prompt, trimmed history, then the question/table/schema prompt.
func NewSynthesisAssemblerNode(maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, table *model.Table) ([]*schema.Message, error) {
		var question string
		var history []model.ChatTurn
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			question = state.Question
			history = trimTail(state.History, maxTurns)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		systemPrompt, err := prompts.RenderSynthesisSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render synthesis system prompt: %w", err)
		}
		userPrompt, err := prompts.RenderSynthesis(ctx, question, RenderTable(table))
		if err != nil {
			return nil, fmt.Errorf("render synthesis prompt: %w", err)
		}

		messages := make([]*schema.Message, 0, 2+len(history))
		messages = append(messages, schema.SystemMessage(systemPrompt))
		messages = append(messages, turnsToMessages(history)...)
		messages = append(messages, schema.UserMessage(userPrompt))
		return messages, nil
	})
}

// NewSynthesisParserNode decodes the synthesis completion and assembles the
// final response from state.
func NewSynthesisParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (*model.PipelineResponse, error) {
		if resp == nil {
			return nil, fmt.Errorf("synthesis model returned nil message")
		}
		var question string
		var sql model.GeneratedSQL
		var table *model.Table
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			question = state.Question
			sql = state.SQL
			table = state.Table
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		parsed := parsers.ParseAnswer(resp.Content)

		data := []model.Row{}
		if !table.Empty() {
			data = table.Rows
		}
		return &model.PipelineResponse{
			Question:          question,
			SQL:               sql.Render(),
			Data:              data,
			Answer:            parsed.Answer,
			FollowUpQuestions: parsed.FollowUpQuestions,
		}, nil
	})
}
