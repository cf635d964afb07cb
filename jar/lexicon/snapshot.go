package lexicon

import (
	"slices"
	"sort"
)

const (
	ListSwear     = "swear"
	ListNSFW      = "nsfw"
	ListGifFilter = "gif-filter"
)

// Reward used for a positive word when the admin doesn't specify one.
const DefaultPositiveReward = 5

// Always part of the swear list, in addition to any configured words.
var DefaultSwearWords = []string{"sorry", "fuck", "damn"}

// Only used when no positive words are configured at all.
var DefaultPositiveWords = map[string]int{
	"thanks":  5,
	"awesome": 5,
	"great":   5,
}

func validList(list string) bool {
	switch list {
	case ListSwear, ListNSFW, ListGifFilter:
		return true
	}
	return false
}

// Raw contents of a lexicon store, before defaults are merged in.
type Contents struct {
	Words    map[string][]string
	Positive map[string]int
}

// Immutable, point-in-time view of all four lexicons. Safe for concurrent readers; never modified after construction.
type Snapshot struct {
	swear     map[string]bool
	nsfw      map[string]bool
	gifFilter map[string]bool
	positive  map[string]int
	// sorted copies, so substring matching is deterministic
	nsfwTerms []string
	gifTerms  []string
}

func toSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		if v != "" {
			m[v] = true
		}
	}
	return m
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builds a snapshot from store contents, merging in the default word lists.
func NewSnapshot(c Contents) *Snapshot {
	swear := toSet(c.Words[ListSwear])
	for _, w := range DefaultSwearWords {
		swear[w] = true
	}
	positive := make(map[string]int, len(c.Positive))
	for w, r := range c.Positive {
		positive[w] = r
	}
	if len(positive) == 0 {
		for w, r := range DefaultPositiveWords {
			positive[w] = r
		}
	}
	nsfw := toSet(c.Words[ListNSFW])
	gif := toSet(c.Words[ListGifFilter])
	return &Snapshot{
		swear:     swear,
		nsfw:      nsfw,
		gifFilter: gif,
		positive:  positive,
		nsfwTerms: sortedKeys(nsfw),
		gifTerms:  sortedKeys(gif),
	}
}

func (s *Snapshot) IsSwear(tok string) bool {
	return s.swear[tok]
}

// Returns the reward for a positive word, and whether the word is in the lexicon at all.
func (s *Snapshot) PositiveReward(tok string) (int, bool) {
	r, ok := s.positive[tok]
	return r, ok
}

// Sorted list of NSFW terms (substring matched).
func (s *Snapshot) NSFWTerms() []string {
	return slices.Clone(s.nsfwTerms)
}

// Sorted list of GIF filter terms (substring matched).
func (s *Snapshot) GifFilterTerms() []string {
	return slices.Clone(s.gifTerms)
}

func (s *Snapshot) SwearWords() []string {
	return sortedKeys(s.swear)
}

func (s *Snapshot) PositiveWords() map[string]int {
	out := make(map[string]int, len(s.positive))
	for w, r := range s.positive {
		out[w] = r
	}
	return out
}
