// Package resolve maps user-typed names to API resources with fuzzy matching.
package resolve

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Named is anything with an ID and a display name. Several entries may share
// an ID, as a resource and its aliases do.
type Named struct {
	ID   string
	Name string
}

type Match struct {
	ID    string
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// AmbiguousError is returned when the best fuzzy matches tie on score but
// name different IDs.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf("ambiguous match for %q", e.Query)
	if len(e.Matches) == 0 {
		return msg
	}
	names := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		names[i] = "\n  " + m.Name
	}
	return msg + ", candidates:" + strings.Join(names, "")
}

// NotFoundError carries the closest names when nothing matched.
type NotFoundError struct {
	Query       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("no match found for %q", e.Query)
	}
	return fmt.Sprintf("no match found for %q, did you mean: %s?", e.Query, strings.Join(e.Suggestions, ", "))
}

// lowerNames adapts items to fuzzy.Source with case folded names.
type lowerNames []Named

func (s lowerNames) String(i int) string { return strings.ToLower(s[i].Name) }
func (s lowerNames) Len() int            { return len(s) }

// FuzzyMatch returns the ID of the item whose name best matches query. A
// case-insensitive exact name always wins.
func FuzzyMatch(query string, items []Named) (string, error) {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return "", ErrEmptyQuery
	case len(items) == 0:
		return "", ErrEmptyItems
	}

	if i := slices.IndexFunc(items, func(n Named) bool { return strings.EqualFold(n.Name, query) }); i >= 0 {
		return items[i].ID, nil
	}

	ranked := fuzzy.FindFrom(strings.ToLower(query), lowerNames(items))
	if len(ranked) == 0 {
		return "", &NotFoundError{Query: query, Suggestions: Suggest(query, items, 3)}
	}
	if len(ranked) > 1 {
		first, second := ranked[0], ranked[1]
		if first.Score == second.Score && items[first.Index].ID != items[second.Index].ID {
			return "", &AmbiguousError{Query: query, Matches: toMatches(items, ranked, 5)}
		}
	}
	return items[ranked[0].Index].ID, nil
}

// Suggest returns up to limit distinct names for "did you mean" hints, closest
// first. A name qualifies when it contains query or is within two edits of
// it, a swap counting as one.
func Suggest(query string, items []Named, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	var near []scored
	seen := map[string]bool{}
	for _, item := range items {
		lower := strings.ToLower(item.Name)
		if seen[lower] {
			continue
		}
		seen[lower] = true

		dist := EditDistance(lower, query)
		if strings.Contains(lower, query) {
			dist = 0
		}
		if dist <= 2 {
			near = append(near, scored{item.Name, dist})
		}
	}
	slices.SortStableFunc(near, func(a, b scored) int { return cmp.Compare(a.dist, b.dist) })

	var out []string
	for _, c := range near[:min(limit, len(near))] {
		out = append(out, c.name)
	}
	return out
}

// EditDistance is the optimal string alignment distance between a and b:
// insertions, deletions, substitutions and adjacent transpositions each cost 1.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	// Three rolling rows: i-2, i-1 and i.
	rows := [3][]int{make([]int, len(rb)+1), make([]int, len(rb)+1), make([]int, len(rb)+1)}
	for j := range rows[1] {
		rows[1][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		older, prev, cur := rows[0], rows[1], rows[2]
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = min(cur[j], older[j-2]+1)
			}
		}
		rows = [3][]int{prev, cur, older}
	}
	return rows[1][len(rb)]
}

func toMatches(items []Named, ranked fuzzy.Matches, limit int) []Match {
	ranked = ranked[:min(limit, len(ranked))]
	matches := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		item := items[r.Index]
		matches = append(matches, Match{ID: item.ID, Name: item.Name, Score: r.Score})
	}
	return matches
}
