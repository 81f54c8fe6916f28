package recommend

import "github.com/PabloPavan/sniply/internal/snippets"

type SimilarityWeights struct {
	SharedTag     float64 // per tag shared with the reference
	SameLanguage  float64
	WeightedScore float64 // multiplier of the candidate's rating score
	LikedAuthor   float64 // requester previously liked a snippet by this author
}

var DefaultSimilarityWeights = SimilarityWeights{
	SharedTag:     1.5,
	SameLanguage:  3.0,
	WeightedScore: 2.0,
	LikedAuthor:   1.0,
}

type PreferenceWeights struct {
	SharedTag float64 // per tag shared with the user's liked-tag union
}

var DefaultPreferenceWeights = PreferenceWeights{
	SharedTag: 2.0,
}

// content is the tag and language part of the similarity score.
func (w SimilarityWeights) content(ref *snippets.Snippet, refTags snippets.TagSet, c *snippets.Snippet) float64 {
	score := 0.0
	if shared := refTags.Overlap(c.NormalizedTags()); shared > 0 {
		score += float64(shared) * w.SharedTag
	}
	if c.Language == ref.Language {
		score += w.SameLanguage
	}
	return score
}

func (w SimilarityWeights) social(c *snippets.Snippet) float64 {
	return c.WeightedScore * w.WeightedScore
}

func (w SimilarityWeights) personal(c *snippets.Snippet, likedAuthors map[string]struct{}) float64 {
	if _, ok := likedAuthors[c.AuthorID]; ok {
		return w.LikedAuthor
	}
	return 0
}

func (w PreferenceWeights) score(shared int) float64 {
	return float64(shared) * w.SharedTag
}
