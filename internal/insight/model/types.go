package model

import "strings"

// SQLSentinel is the exact string exposed in a response's sql field when no
// statement could be produced. Kept for compatibility with existing clients;
// internally generation results are tagged, not string-matched.
const SQLSentinel = "-- Could not generate SQL"

// NullToken replaces SQL NULLs in returned rows. The literal string (rather
// than a JSON null) is what downstream consumers already expect.
const NullToken = "None"

// ChatTurn is one prior turn of the conversation, role "user" or "assistant".
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskInput is the public input of the ask pipeline.
type AskInput struct {
	Question string     `json:"question"`
	History  []ChatTurn `json:"chat_history"`
}

// Row maps column name to a scalar value. NULLs arrive as NullToken.
type Row map[string]any

// Table is an ordered tabular query result. Columns preserves the SELECT
// order since Row iteration order is undefined.
type Table struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// GeneratedSQL is the tagged result of SQL generation. The zero value means
// "no statement produced".
type GeneratedSQL struct {
	Statement string
	OK        bool
}

// NewGeneratedSQL tags a non-blank statement; blank input yields NoSQL.
func NewGeneratedSQL(statement string) GeneratedSQL {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return NoSQL()
	}
	return GeneratedSQL{Statement: statement, OK: true}
}

// NoSQL is the "nothing generated" result.
func NoSQL() GeneratedSQL {
	return GeneratedSQL{}
}

// Render returns the statement for the response boundary, or the sentinel
// when generation produced nothing.
func (g GeneratedSQL) Render() string {
	if !g.OK {
		return SQLSentinel
	}
	return g.Statement
}

// Executable reports whether the statement should reach the query executor.
// Comment-prefixed output (including the sentinel itself) never executes.
func (g GeneratedSQL) Executable() bool {
	return g.OK && !strings.HasPrefix(strings.TrimSpace(g.Statement), "--")
}

// SynthesizedAnswer is the parsed output of the synthesis model.
type SynthesizedAnswer struct {
	Answer            string   `json:"answer"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// PipelineResponse is the unit returned to every front-end. Adapter
// enrichment fields are empty unless the voice or image path set them.
type PipelineResponse struct {
	Question          string   `json:"question"`
	SQL               string   `json:"sql"`
	Data              []Row    `json:"data"`
	Answer            string   `json:"answer"`
	FollowUpQuestions []string `json:"follow_up_questions"`

	Transcription    string `json:"transcription,omitempty"`
	OCRText          string `json:"ocr_text,omitempty"`
	OriginalQuestion string `json:"original_question,omitempty"`
}

// ConversationalFollowUps is the fixed triple returned on the conversational
// path, nudging the user back toward data questions.
var ConversationalFollowUps = []string{
	"Show total UPI transaction volume",
	"Which bank had the most transactions?",
	"What are the top 5 transactions by amount?",
}

// SynthesisFallbackFollowUps is the fixed triple used only when the synthesis
// model's completion is not valid JSON.
var SynthesisFallbackFollowUps = []string{
	"Can you break this down by transaction type?",
	"What does the trend look like over time?",
	"Are there any anomalies in this data?",
}
