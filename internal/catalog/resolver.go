package catalog

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultFuzzyThreshold is the minimum similarity a fuzzy match must reach.
const DefaultFuzzyThreshold = 0.6

// Matcher is one tier of location matching. key is already normalized and
// non-empty.
type Matcher interface {
	Name() string
	Match(key string, c *Catalog) (Station, bool)
}

// ExactMatcher matches a station whose key equals the input.
type ExactMatcher struct{}

func (ExactMatcher) Name() string { return "exact" }

func (ExactMatcher) Match(key string, c *Catalog) (Station, bool) {
	var (
		found Station
		ok    bool
	)
	c.each(func(s Station) bool {
		if s.Key == key {
			found, ok = s, true
			return false
		}
		return true
	})
	return found, ok
}

// SubstringMatcher matches the first station, in catalog order, whose key
// contains the input.
type SubstringMatcher struct{}

func (SubstringMatcher) Name() string { return "substring" }

func (SubstringMatcher) Match(key string, c *Catalog) (Station, bool) {
	var (
		found Station
		ok    bool
	)
	c.each(func(s Station) bool {
		if strings.Contains(s.Key, key) {
			found, ok = s, true
			return false
		}
		return true
	})
	return found, ok
}

// FuzzyMatcher picks the most similar station key, accepting it only when the
// similarity is at least Threshold. Equal scores keep the earlier station.
type FuzzyMatcher struct {
	Threshold float64
}

func (FuzzyMatcher) Name() string { return "fuzzy" }

func (m FuzzyMatcher) Match(key string, c *Catalog) (Station, bool) {
	var (
		best      Station
		bestScore = -1.0
	)
	c.each(func(s Station) bool {
		if score := Similarity(key, s.Key); score > bestScore {
			best, bestScore = s, score
		}
		return true
	})
	if bestScore < m.Threshold {
		return Station{}, false
	}
	return best, true
}

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) measured in
// runes: 1.0 for identical strings, 0.0 for completely different ones.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// DefaultMatchers is the resolution order: exact, then substring, then fuzzy.
func DefaultMatchers() []Matcher {
	return []Matcher{
		ExactMatcher{},
		SubstringMatcher{},
		FuzzyMatcher{Threshold: DefaultFuzzyThreshold},
	}
}

// Resolver maps free text to a catalog station through an ordered chain of
// matchers; the first matcher that hits wins.
type Resolver struct {
	catalog  *Catalog
	matchers []Matcher
}

// NewResolver creates a Resolver over c. Without matchers the default chain is
// used.
func NewResolver(c *Catalog, matchers ...Matcher) *Resolver {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Resolver{catalog: c, matchers: matchers}
}

// Catalog returns the catalog the resolver reads.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve returns the best matching station for text. The boolean is false
// when nothing matches, which is a normal outcome rather than an error.
func (r *Resolver) Resolve(text string) (Station, bool) {
	key := Normalize(text)
	if key == "" || r.catalog == nil {
		return Station{}, false
	}

	for _, m := range r.matchers {
		if s, ok := m.Match(key, r.catalog); ok {
			slog.Debug("resolver: matched", "input", text, "tier", m.Name(), "station", s.ID)
			return s, true
		}
	}

	slog.Debug("resolver: no match", "input", text)
	return Station{}, false
}
