package parsers

import (
	"encoding/json"
	"strings"

	"github.com/insightx/server/internal/insight/model"
	logx "github.com/insightx/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxFollowUps  = 3
)

// ParseIntent interprets the guardrail model's one-word verdict. Only a
// completion starting with YES (any case) routes to the analytics path; every
// other completion, including garbage, is treated as conversational.
func ParseIntent(content string) bool {
	word := strings.ToUpper(strings.TrimSpace(content))
	return strings.HasPrefix(word, "YES")
}

// ParseAnswer decodes the synthesis model's JSON completion. The model is
// instructed to return {"answer": ..., "follow_up_questions": [...]}, but
// completions are untrusted: on any decoding failure the raw text becomes the
// answer and a fixed follow-up triple is substituted. On success follow-ups
// are capped at three; fewer than three are returned as-is, never padded.
func ParseAnswer(content string) model.SynthesizedAnswer {
	raw := strings.TrimSpace(content)
	if len(raw) > maxContentLen {
		logx.Warn().
			Str("component", "answer_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(raw)).
			Msg("completion truncated due to size limit")
		raw = raw[:maxContentLen]
	}

	var parsed model.SynthesizedAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil || strings.TrimSpace(parsed.Answer) == "" {
		logx.Debug().
			Str("component", "answer_parser").
			Msg("completion is not the expected JSON shape, using raw text")
		return model.SynthesizedAnswer{
			Answer:            raw,
			FollowUpQuestions: append([]string(nil), model.SynthesisFallbackFollowUps...),
		}
	}

	followUps := make([]string, 0, maxFollowUps)
	for _, q := range parsed.FollowUpQuestions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		followUps = append(followUps, q)
		if len(followUps) == maxFollowUps {
			break
		}
	}
	parsed.FollowUpQuestions = followUps
	return parsed
}

// StripSQLFence removes a surrounding markdown code fence from a generated
// statement, tolerating ```sql and bare ``` markers.
func StripSQLFence(s string) string {
	return strings.TrimSpace(stripCodeFence(strings.TrimSpace(s)))
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop a language tag on the fence line
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first != "" && !strings.ContainsAny(first, " \t{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
