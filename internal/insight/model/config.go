package model

// ================ Config ================

// IntentModelConfig drives the yes/no guardrail model. Temperature stays at
// zero and the output budget is a handful of tokens: one word is expected.
type IntentModelConfig struct {
	Model       string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"INTENT_MAX_TOKENS" default:"5"`
	Temperature float32 `envconfig:"INTENT_TEMPERATURE" default:"0.0"`
}

// ChatModelConfig drives the conversational fallback replies.
type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"150"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
}

// SQLModelConfig drives text-to-SQL generation.
type SQLModelConfig struct {
	Model       string  `envconfig:"SQL_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SQL_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"SQL_TEMPERATURE" default:"0.0"`
}

// SynthesisModelConfig drives the executive-summary completion.
type SynthesisModelConfig struct {
	Model       string  `envconfig:"SYNTHESIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIS_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" default:"0.3"`
}

// EmbeddingConfig selects the embedding model backing the grounding store.
type EmbeddingConfig struct {
	Model string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	TopK  int    `envconfig:"GROUNDING_TOP_K" default:"5"`
}

// HistoryConfig bounds how much conversation history each stage sees.
// Older turns are dropped, never summarized.
type HistoryConfig struct {
	ChatMaxTurns      int `envconfig:"HISTORY_CHAT_MAX_TURNS" default:"10"`
	SynthesisMaxTurns int `envconfig:"HISTORY_SYNTHESIS_MAX_TURNS" default:"6"`
}
