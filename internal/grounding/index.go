package grounding

import (
	"math"
	"sort"
	"sync"
)

type docKind int

const (
	kindDDL docKind = iota
	kindDocumentation
	kindExample
)

type entry struct {
	kind   docKind
	text   string // embedded text; for examples this is the question
	sql    string // set for kindExample only
	vector []float32
}

// index is an in-memory vector index over the training corpus. Entries are
// added once during training and only read afterwards.
type index struct {
	mu      sync.RWMutex
	entries []entry
}

func newIndex() *index {
	return &index{}
}

func (ix *index) add(e entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = append(ix.entries, e)
}

func (ix *index) size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// search returns up to k entries of the given kind, most similar first.
// Entries with zero-magnitude vectors are skipped.
func (ix *index) search(query []float32, kind docKind, k int) []entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored struct {
		e     entry
		score float64
	}
	matches := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		if e.kind != kind {
			continue
		}
		s, ok := cosineSimilarity(query, e.vector)
		if !ok {
			continue
		}
		matches = append(matches, scored{e: e, score: s})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	out := make([]entry, len(matches))
	for i, m := range matches {
		out[i] = m.e
	}
	return out
}

// cosineSimilarity returns the cosine of the angle between a and b. The
// second return is false when the vectors differ in length or either has
// zero magnitude.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
