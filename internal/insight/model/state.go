package model

// AppState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AppState struct {
	Question     string       // trimmed question, set before the intent stage
	History      []ChatTurn   // caller-supplied history, untrimmed
	DataQuestion bool         // intent classification outcome
	SQL          GeneratedSQL // set by the generator node
	Table        *Table       // set by the executor node; nil means failure
}
