package snippets

import "strings"

// TagSet is the normalised set of tags of a snippet. Tags keep the order in
// which they first appeared in the raw text so First is deterministic.
type TagSet struct {
	tags  []string
	index map[string]struct{}
}

// ParseTags splits raw on commas, trims and lowercases every token and drops
// empty tokens and duplicates.
func ParseTags(raw string) TagSet {
	var ts TagSet
	for _, part := range strings.Split(raw, ",") {
		ts.add(strings.ToLower(strings.TrimSpace(part)))
	}
	return ts
}

func (t *TagSet) add(tag string) {
	if tag == "" {
		return
	}
	if t.index == nil {
		t.index = make(map[string]struct{})
	}
	if _, ok := t.index[tag]; ok {
		return
	}
	t.index[tag] = struct{}{}
	t.tags = append(t.tags, tag)
}

func (t TagSet) Len() int { return len(t.tags) }

func (t TagSet) Empty() bool { return len(t.tags) == 0 }

// First returns the first tag in appearance order.
func (t TagSet) First() (string, bool) {
	if len(t.tags) == 0 {
		return "", false
	}
	return t.tags[0], true
}

func (t TagSet) Has(tag string) bool {
	_, ok := t.index[tag]
	return ok
}

// Overlap is the size of the intersection of t and other.
func (t TagSet) Overlap(other TagSet) int {
	small, large := t, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	n := 0
	for _, tag := range small.tags {
		if large.Has(tag) {
			n++
		}
	}
	return n
}

// Union returns a new set; t's tags come first.
func (t TagSet) Union(other TagSet) TagSet {
	var out TagSet
	for _, tag := range t.tags {
		out.add(tag)
	}
	for _, tag := range other.tags {
		out.add(tag)
	}
	return out
}

func (t TagSet) Slice() []string {
	out := make([]string, len(t.tags))
	copy(out, t.tags)
	return out
}

// String is the canonical stored form: "a,b,c".
func (t TagSet) String() string {
	return strings.Join(t.tags, ",")
}

// CanonicalTags rewrites user supplied tag text into its stored form.
func CanonicalTags(raw string) string {
	return ParseTags(raw).String()
}
