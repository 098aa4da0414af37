package nodes

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/insightx/server/internal/insight/model"
)

// ===== Small helpers to keep handlers simple/readable =====

// trimTail returns the last max turns. Older turns are dropped outright.
func trimTail(turns []model.ChatTurn, max int) []model.ChatTurn {
	if max <= 0 || len(turns) <= max {
		return turns
	}
	return turns[len(turns)-max:]
}

// turnsToMessages converts caller-supplied history into schema messages.
// Unknown roles and blank contents are skipped rather than rejected.
func turnsToMessages(turns []model.ChatTurn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case "user":
			msgs = append(msgs, schema.UserMessage(content))
		case "assistant":
			msgs = append(msgs, schema.AssistantMessage(content, nil))
		}
	}
	return msgs
}
