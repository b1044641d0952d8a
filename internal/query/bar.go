package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/alchemix/bar-server/internal/config"
)

// BarConstructor is the production Constructor. It builds queries
// against a YAML recipe knowledge base and keeps a TTL cache of answers
// (the memory layer). The knowledge base can be swapped at runtime via
// Reload, so reads go through an RWMutex.
type BarConstructor struct {
	cfg config.QueryConfig

	mu sync.RWMutex
	kb *knowledgeBase

	answers *cache.Cache
}

// NewBarConstructor loads the recipe knowledge base and returns a ready
// constructor. A missing or unparseable recipe file is a fatal
// construction error.
func NewBarConstructor(cfg config.QueryConfig) (*BarConstructor, error) {
	kb, err := loadKnowledgeBase(cfg.RecipeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to build bar query constructor: %w", err)
	}

	return &BarConstructor{
		cfg:     cfg,
		kb:      kb,
		answers: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}, nil
}

// Construct turns a request into a structured query without executing it.
func (b *BarConstructor) Construct(_ context.Context, req Request) (*Query, error) {
	q := &Query{
		Terms:  extractTerms(req.Question),
		Spirit: normalize(req.Spirit),
		Glass:  normalize(req.Glass),
		Limit:  req.Limit,
	}
	if q.Limit <= 0 || q.Limit > b.cfg.MaxResults {
		q.Limit = b.cfg.MaxResults
	}

	if len(q.Terms) == 0 && q.Spirit == "" && q.Glass == "" {
		return nil, ErrEmptyQuery
	}
	return q, nil
}

// Answer constructs the query and executes it against the knowledge
// base, consulting the answer cache first.
func (b *BarConstructor) Answer(ctx context.Context, req Request) (*Answer, error) {
	q, err := b.Construct(ctx, req)
	if err != nil {
		return nil, err
	}

	key := answerKey(q)
	if cached, ok := b.answers.Get(key); ok {
		if ans, ok := cached.(*Answer); ok {
			hit := *ans
			hit.Source = SourceCache
			return &hit, nil
		}
	}

	b.mu.RLock()
	matches := b.kb.search(q)
	b.mu.RUnlock()

	ans := &Answer{
		Query:   q,
		Matches: matches,
		Source:  SourceIndex,
	}
	b.answers.Set(key, ans, cache.DefaultExpiration)
	return ans, nil
}

// RecipeCount reports the size of the active knowledge base.
func (b *BarConstructor) RecipeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.kb.recipes)
}

// Name implements hotreload.Reloadable.
func (b *BarConstructor) Name() string {
	return "bar-query-constructor"
}

// Reload implements hotreload.Reloadable: it re-reads the recipe file,
// swaps in the fresh snapshot and drops all cached answers. On failure
// the previous knowledge base stays active.
func (b *BarConstructor) Reload(_ context.Context) error {
	kb, err := loadKnowledgeBase(b.cfg.RecipeFile)
	if err != nil {
		return fmt.Errorf("failed to reload recipe file: %w", err)
	}

	b.mu.Lock()
	b.kb = kb
	b.mu.Unlock()

	b.answers.Flush()
	return nil
}

// answerKey builds a stable cache key from a constructed query.
func answerKey(q *Query) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(q.Terms, ","))
	sb.WriteString("|")
	sb.WriteString(q.Spirit)
	sb.WriteString("|")
	sb.WriteString(q.Glass)
	sb.WriteString("|")
	sb.WriteString(fmt.Sprintf("%d", q.Limit))
	return sb.String()
}
