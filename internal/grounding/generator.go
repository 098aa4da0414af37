package grounding

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/insightx/server/internal/insight/graph/parsers"
	"github.com/insightx/server/internal/insight/graph/prompts"
	"github.com/insightx/server/internal/insight/model"
	logx "github.com/insightx/server/pkg/logger"
)

// Generator is retrieval-augmented text-to-SQL: it pulls relevant context
// from the store, assembles a few-shot prompt, and asks the SQL model for a
// single statement.
type Generator struct {
	store *Store
	cm    einomodel.BaseChatModel
}

func NewGenerator(store *Store, cm einomodel.BaseChatModel) *Generator {
	return &Generator{store: store, cm: cm}
}

// Generate produces a tagged statement for the question. A model completion
// that is empty after fence stripping yields the "no SQL" result rather than
// an error; transport and model failures propagate.
func (g *Generator) Generate(ctx context.Context, question string) (model.GeneratedSQL, error) {
	retrieved, err := g.store.Retrieve(ctx, question)
	if err != nil {
		return model.NoSQL(), fmt.Errorf("retrieve context: %w", err)
	}

	systemPrompt, err := prompts.RenderSQLSystem(ctx, strings.Join(retrieved.DDL, "\n\n"), retrieved.Documentation)
	if err != nil {
		return model.NoSQL(), fmt.Errorf("render sql prompt: %w", err)
	}

	// Few-shot pairs go in as alternating user/assistant turns, nearest last
	// so the most similar example sits closest to the question.
	messages := make([]*schema.Message, 0, 2+2*len(retrieved.Examples))
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for i := len(retrieved.Examples) - 1; i >= 0; i-- {
		ex := retrieved.Examples[i]
		messages = append(messages,
			schema.UserMessage(ex.Question),
			schema.AssistantMessage(ex.SQL, nil),
		)
	}
	messages = append(messages, schema.UserMessage(question))

	out, err := g.cm.Generate(ctx, messages)
	if err != nil {
		return model.NoSQL(), fmt.Errorf("sql generation: %w", err)
	}
	if out == nil {
		return model.NoSQL(), nil
	}

	statement := parsers.StripSQLFence(out.Content)
	logx.Debug().
		Str("component", "sql_generator").
		Str("sql", statement).
		Msg("generated statement")
	return model.NewGeneratedSQL(statement), nil
}
