package recommend

import (
	"sort"

	"github.com/PabloPavan/sniply/internal/snippets"
)

// Scored pairs a candidate with its accumulated score.
type Scored struct {
	Snippet *snippets.Snippet `json:"snippet"`
	Score   float64           `json:"score"`
}

// scoreboard accumulates scores per snippet id. A snippet starts at zero on
// first touch and keeps the position at which it was first seen.
type scoreboard struct {
	index map[string]int
	items []Scored
}

func newScoreboard(capHint int) *scoreboard {
	return &scoreboard{
		index: make(map[string]int, capHint),
		items: make([]Scored, 0, capHint),
	}
}

func (b *scoreboard) add(s *snippets.Snippet, delta float64) {
	i, ok := b.index[s.ID]
	if !ok {
		i = len(b.items)
		b.index[s.ID] = i
		b.items = append(b.items, Scored{Snippet: s})
	}
	b.items[i].Score += delta
}

func (b *scoreboard) len() int { return len(b.items) }

// Rank orders items by score, highest first, and keeps at most limit of them.
// Equal scores keep their input order. items is not modified.
func Rank(items []Scored, limit int) []Scored {
	if limit <= 0 || len(items) == 0 {
		return []Scored{}
	}
	out := make([]Scored, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Snippets drops the scores.
func Snippets(items []Scored) []*snippets.Snippet {
	out := make([]*snippets.Snippet, 0, len(items))
	for _, it := range items {
		out = append(out, it.Snippet)
	}
	return out
}
