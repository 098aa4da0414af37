package parsers

import (
	"reflect"
	"testing"

	"github.com/insightx/server/internal/insight/model"
)

func TestParseIntent(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"YES", true},
		{"yes", true},
		{"  Yes.\n", true},
		{"YES, this is a data question", true},
		{"NO", false},
		{"no", false},
		{"maybe", false},
		{"", false},
		{"I think the answer is YES", false},
	}
	for _, c := range cases {
		if got := ParseIntent(c.content); got != c.want {
			t.Errorf("ParseIntent(%q) = %v, want %v", c.content, got, c.want)
		}
	}
}

func TestParseAnswerValidJSON(t *testing.T) {
	got := ParseAnswer(`{"answer": "Total volume was high.", "follow_up_questions": ["A?", "B?", "C?", "D?"]}`)
	if got.Answer != "Total volume was high." {
		t.Fatalf("answer = %q", got.Answer)
	}
	if want := []string{"A?", "B?", "C?"}; !reflect.DeepEqual(got.FollowUpQuestions, want) {
		t.Fatalf("follow-ups = %v, want %v", got.FollowUpQuestions, want)
	}
}

func TestParseAnswerFencedJSON(t *testing.T) {
	got := ParseAnswer("```json\n{\"answer\": \"ok\", \"follow_up_questions\": [\"A?\"]}\n```")
	if got.Answer != "ok" {
		t.Fatalf("answer = %q", got.Answer)
	}
	if len(got.FollowUpQuestions) != 1 || got.FollowUpQuestions[0] != "A?" {
		t.Fatalf("follow-ups = %v", got.FollowUpQuestions)
	}
}

func TestParseAnswerFewerThanThreeNotPadded(t *testing.T) {
	got := ParseAnswer(`{"answer": "ok", "follow_up_questions": ["only one?"]}`)
	if len(got.FollowUpQuestions) != 1 {
		t.Fatalf("follow-ups should not be padded, got %v", got.FollowUpQuestions)
	}
}

func TestParseAnswerInvalidJSONFallsBack(t *testing.T) {
	raw := "The total was roughly five lakh rupees."
	got := ParseAnswer(raw)
	if got.Answer != raw {
		t.Fatalf("answer = %q, want raw text", got.Answer)
	}
	if !reflect.DeepEqual(got.FollowUpQuestions, model.SynthesisFallbackFollowUps) {
		t.Fatalf("follow-ups = %v, want fallback triple", got.FollowUpQuestions)
	}
}

func TestParseAnswerEmptyAnswerFieldFallsBack(t *testing.T) {
	raw := `{"answer": "", "follow_up_questions": ["A?"]}`
	got := ParseAnswer(raw)
	if got.Answer != raw {
		t.Fatalf("answer = %q, want raw text", got.Answer)
	}
}

func TestStripSQLFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"  ```sql\nSELECT COUNT(*) FROM transactions\n```  ", "SELECT COUNT(*) FROM transactions"},
	}
	for _, c := range cases {
		if got := StripSQLFence(c.in); got != c.want {
			t.Errorf("StripSQLFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
