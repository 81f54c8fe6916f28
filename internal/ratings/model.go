package ratings

import (
	"fmt"
	"strings"
	"time"
)

type Value string

const (
	Like    Value = "like"
	Dislike Value = "dislike"
)

func (v Value) Valid() bool {
	switch v {
	case Like, Dislike:
		return true
	default:
		return false
	}
}

func ParseValue(s string) (Value, error) {
	v := Value(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("invalid rating: %q", s)
	}
	return v, nil
}

// Rating is unique per (UserID, SnippetID).
type Rating struct {
	UserID    string    `json:"user_id"`
	SnippetID string    `json:"snippet_id"`
	Value     Value     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Stats struct {
	SnippetID     string  `json:"snippet_id"`
	Likes         int     `json:"likes"`
	Dislikes      int     `json:"dislikes"`
	WeightedScore float64 `json:"weighted_score"`
}
