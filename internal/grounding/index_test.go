package grounding

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
		ok   bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, true},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, true},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, true},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0, false},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0, false},
		{"empty", nil, nil, 0, false},
	}
	for _, c := range cases {
		got, ok := cosineSimilarity(c.a, c.b)
		if ok != c.ok {
			t.Errorf("%s: ok = %v, want %v", c.name, ok, c.ok)
			continue
		}
		if ok && math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: similarity = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIndexSearchRanksAndFilters(t *testing.T) {
	ix := newIndex()
	ix.add(entry{kind: kindExample, text: "close", sql: "SELECT 1", vector: []float32{0.9, 0.1}})
	ix.add(entry{kind: kindExample, text: "far", sql: "SELECT 2", vector: []float32{0, 1}})
	ix.add(entry{kind: kindExample, text: "closest", sql: "SELECT 3", vector: []float32{1, 0}})
	ix.add(entry{kind: kindDocumentation, text: "doc", vector: []float32{1, 0}})

	got := ix.search([]float32{1, 0}, kindExample, 2)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].text != "closest" || got[1].text != "close" {
		t.Fatalf("ranking = [%s, %s], want [closest, close]", got[0].text, got[1].text)
	}
	for _, e := range got {
		if e.kind != kindExample {
			t.Fatalf("kind filter leaked entry %q", e.text)
		}
	}
}

func TestIndexSearchSkipsDegenerateVectors(t *testing.T) {
	ix := newIndex()
	ix.add(entry{kind: kindDocumentation, text: "zero", vector: []float32{0, 0}})
	ix.add(entry{kind: kindDocumentation, text: "short", vector: []float32{1}})
	ix.add(entry{kind: kindDocumentation, text: "ok", vector: []float32{0.5, 0.5}})

	got := ix.search([]float32{1, 1}, kindDocumentation, 10)
	if len(got) != 1 || got[0].text != "ok" {
		t.Fatalf("got %v, want only the well-formed entry", got)
	}
}
