// Package prompts renders every prompt the pipeline sends to a model.
// Templates are embedded so the binary is self-contained; rendering goes
// through the Eino prompt component so Prompt callbacks fire.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/intent_prompt.txt
var intentPrompt string

//go:embed template/chat_system.txt
var chatSystemPrompt string

//go:embed template/synthesis_system.txt
var synthesisSystemPrompt string

//go:embed template/synthesis_prompt.txt
var synthesisPrompt string

//go:embed template/schema.txt
var dbSchema string

//go:embed template/sql_system.txt
var sqlSystemPrompt string

// DBSchema is the natural-language schema block included in synthesis prompts
// so follow-up questions stay answerable against the real columns.
func DBSchema() string {
	return strings.TrimSpace(dbSchema)
}

// RenderIntent renders the one-word yes/no guardrail prompt for a question.
func RenderIntent(ctx context.Context, question string) (string, error) {
	content := strings.NewReplacer("{question}", question).Replace(intentPrompt)
	return passthrough(ctx, "intent", content)
}

// RenderChatSystem renders the system prompt for the conversational path.
func RenderChatSystem(ctx context.Context) (string, error) {
	return passthrough(ctx, "chat", chatSystemPrompt)
}

// RenderSynthesisSystem renders the system prompt for the synthesis model.
func RenderSynthesisSystem(ctx context.Context) (string, error) {
	return passthrough(ctx, "synthesis_system", synthesisSystemPrompt)
}

// RenderSynthesis renders the synthesis user prompt: question, rendered
// result table, and the schema block, with the JSON output contract.
func RenderSynthesis(ctx context.Context, question, tableMarkdown string) (string, error) {
	content := strings.NewReplacer(
		"{question}", question,
		"{table}", tableMarkdown,
		"{schema}", DBSchema(),
	).Replace(synthesisPrompt)
	return passthrough(ctx, "synthesis", content)
}

// RenderSQLSystem renders the text-to-SQL system prompt with the retrieved
// DDL and documentation snippets substituted in.
func RenderSQLSystem(ctx context.Context, ddl string, documentation []string) (string, error) {
	content := strings.NewReplacer(
		"{ddl}", ddl,
		"{documentation}", strings.Join(documentation, "\n\n"),
	).Replace(sqlSystemPrompt)
	return passthrough(ctx, "sql_system", content)
}

// passthrough routes a fully rendered string through the Eino prompt
// component using a messages placeholder, so prompt callbacks observe it,
// then returns the content unchanged. Known tokens are substituted before
// this step to keep literal braces in templates intact.
func passthrough(ctx context.Context, name, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("%s prompt callbacks: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt callbacks: empty result", name)
	}
	return msgs[0].Content, nil
}
