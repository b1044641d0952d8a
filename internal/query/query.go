// Package query defines the query-construction capability of the bar
// server and its implementations. The server is handed one Constructor
// at build time and treats it as opaque.
package query

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Constructor builds structured bar queries from free-text requests and
// answers them. Implementations must be safe for concurrent use.
type Constructor interface {
	// Construct turns a request into a structured query without executing it.
	Construct(ctx context.Context, req Request) (*Query, error)
	// Answer constructs and executes the query in one step.
	Answer(ctx context.Context, req Request) (*Answer, error)
}

// Request is a single inbound question about drinks.
type Request struct {
	Question string `json:"question"`
	Spirit   string `json:"spirit,omitempty"`
	Glass    string `json:"glass,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Query is the structured form a Constructor derives from a Request.
type Query struct {
	Terms  []string `json:"terms"`
	Spirit string   `json:"spirit,omitempty"`
	Glass  string   `json:"glass,omitempty"`
	Limit  int      `json:"limit"`
}

// Match is a single recipe returned for a query.
type Match struct {
	Name        string   `json:"name"`
	Spirit      string   `json:"spirit"`
	Glass       string   `json:"glass"`
	Method      string   `json:"method"`
	Ingredients []string `json:"ingredients"`
	Score       int      `json:"score"`
}

// Answer is the result of executing a constructed query.
type Answer struct {
	Query   *Query  `json:"query"`
	Matches []Match `json:"matches"`
	Source  string  `json:"source"`
}

// Answer sources.
const (
	SourceIndex = "index"
	SourceCache = "cache"
	SourceNone  = "none"
)

// ErrEmptyQuery is returned when a request yields no usable terms or filters.
var ErrEmptyQuery = errors.New("query: request has no usable terms or filters")

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// stopwords are dropped during term extraction.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "with": {},
	"for": {}, "to": {}, "in": {}, "on": {}, "me": {}, "i": {},
	"some": {}, "something": {}, "what": {}, "whats": {}, "is": {},
	"can": {}, "you": {}, "make": {}, "made": {}, "drink": {},
	"cocktail": {}, "please": {}, "want": {}, "like": {}, "would": {},
}

// synonyms fold common spelling variants into the index's vocabulary.
var synonyms = map[string]string{
	"whisky":  "whiskey",
	"bourbon": "whiskey",
	"rye":     "whiskey",
	"scotch":  "whiskey",
	"cachaça": "cachaca",
}

// extractTerms tokenizes a question into normalized search terms.
func extractTerms(question string) []string {
	raw := nonWord.Split(strings.ToLower(question), -1)
	terms := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tok := range raw {
		if tok == "" {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		if canonical, ok := synonyms[tok]; ok {
			tok = canonical
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := synonyms[s]; ok {
		return canonical
	}
	return s
}
