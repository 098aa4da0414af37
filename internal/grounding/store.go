package grounding

import (
	"context"
	"fmt"

	logx "github.com/insightx/server/pkg/logger"
)

// Context is the retrieved material handed to SQL generation for one
// question: schema DDL, documentation snippets, and the nearest trained
// question/SQL pairs.
type Context struct {
	DDL           []string
	Documentation []string
	Examples      []Example
}

// Store indexes the training corpus and retrieves question-relevant context.
type Store struct {
	idx      *index
	embedder Embedder
	topK     int
}

func NewStore(embedder Embedder, topK int) *Store {
	if topK <= 0 {
		topK = 5
	}
	return &Store{idx: newIndex(), embedder: embedder, topK: topK}
}

// Train embeds and indexes the corpus. Meant to run once at startup; an
// embedding failure aborts training so a partially indexed store never
// serves traffic.
func (s *Store) Train(ctx context.Context, corpus Corpus) error {
	if corpus.DDL != "" {
		if err := s.addEntry(ctx, entry{kind: kindDDL, text: corpus.DDL}); err != nil {
			return fmt.Errorf("train ddl: %w", err)
		}
	}
	for i, doc := range corpus.Documentation {
		if err := s.addEntry(ctx, entry{kind: kindDocumentation, text: doc}); err != nil {
			return fmt.Errorf("train documentation %d: %w", i, err)
		}
	}
	for i, ex := range corpus.Examples {
		if err := s.addEntry(ctx, entry{kind: kindExample, text: ex.Question, sql: ex.SQL}); err != nil {
			return fmt.Errorf("train example %d: %w", i, err)
		}
	}
	logx.Info().
		Int("entries", s.idx.size()).
		Msg("grounding store trained")
	return nil
}

func (s *Store) addEntry(ctx context.Context, e entry) error {
	vec, err := s.embedder.Embed(ctx, e.text)
	if err != nil {
		return err
	}
	e.vector = vec
	s.idx.add(e)
	return nil
}

// Retrieve returns the context most relevant to the question. DDL entries
// are few, so all of them come back; documentation and examples are capped
// at the configured top-k.
func (s *Store) Retrieve(ctx context.Context, question string) (Context, error) {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Context{}, fmt.Errorf("embed question: %w", err)
	}

	var out Context
	for _, e := range s.idx.search(vec, kindDDL, 0) {
		out.DDL = append(out.DDL, e.text)
	}
	for _, e := range s.idx.search(vec, kindDocumentation, s.topK) {
		out.Documentation = append(out.Documentation, e.text)
	}
	for _, e := range s.idx.search(vec, kindExample, s.topK) {
		out.Examples = append(out.Examples, Example{Question: e.text, SQL: e.sql})
	}
	return out, nil
}
