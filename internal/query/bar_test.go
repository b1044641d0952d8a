package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemix/bar-server/internal/config"
)

const testRecipes = `
recipes:
  - name: Margarita
    spirit: tequila
    glass: coupe
    method: shaken
    ingredients: [tequila, lime juice, triple sec]
    tags: [sour, citrus]
  - name: Old Fashioned
    spirit: whiskey
    glass: rocks
    method: stirred
    ingredients: [whiskey, sugar, angostura bitters]
    tags: [classic, spirit-forward]
  - name: Whiskey Sour
    spirit: whiskey
    glass: coupe
    method: shaken
    ingredients: [whiskey, lemon juice, simple syrup, egg white]
    tags: [sour, classic]
  - name: Daiquiri
    spirit: rum
    glass: coupe
    method: shaken
    ingredients: [white rum, lime juice, simple syrup]
    tags: [sour, citrus, classic]
`

func writeRecipes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestConstructor(t *testing.T) *BarConstructor {
	t.Helper()
	cfg := config.DefaultQueryConfig()
	cfg.RecipeFile = writeRecipes(t, testRecipes)
	c, err := NewBarConstructor(cfg)
	require.NoError(t, err)
	return c
}

func TestNewBarConstructor_MissingFile(t *testing.T) {
	cfg := config.DefaultQueryConfig()
	cfg.RecipeFile = "/nonexistent/recipes.yaml"

	_, err := NewBarConstructor(cfg)
	require.Error(t, err)
}

func TestNewBarConstructor_BadYAML(t *testing.T) {
	cfg := config.DefaultQueryConfig()
	cfg.RecipeFile = writeRecipes(t, "recipes: [not: [valid")

	_, err := NewBarConstructor(cfg)
	require.Error(t, err)
}

func TestNewBarConstructor_EmptyKnowledgeBase(t *testing.T) {
	cfg := config.DefaultQueryConfig()
	cfg.RecipeFile = writeRecipes(t, "recipes: []")

	_, err := NewBarConstructor(cfg)
	require.Error(t, err)
}

func TestBarConstructor_Construct(t *testing.T) {
	c := newTestConstructor(t)

	q, err := c.Construct(context.Background(), Request{
		Question: "something sour with whisky please",
	})
	require.NoError(t, err)

	assert.Contains(t, q.Terms, "sour")
	assert.Contains(t, q.Terms, "whiskey", "synonym folding should map whisky to whiskey")
	assert.NotContains(t, q.Terms, "please")
	assert.Equal(t, 5, q.Limit)
}

func TestBarConstructor_Construct_EmptyRequest(t *testing.T) {
	c := newTestConstructor(t)

	_, err := c.Construct(context.Background(), Request{Question: "can you make me a drink"})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestBarConstructor_Answer(t *testing.T) {
	c := newTestConstructor(t)

	ans, err := c.Answer(context.Background(), Request{Question: "whiskey sour"})
	require.NoError(t, err)

	require.NotEmpty(t, ans.Matches)
	assert.Equal(t, "Whiskey Sour", ans.Matches[0].Name, "name hits should rank first")
	assert.Equal(t, SourceIndex, ans.Source)
}

func TestBarConstructor_Answer_SpiritFilter(t *testing.T) {
	c := newTestConstructor(t)

	ans, err := c.Answer(context.Background(), Request{Question: "sour", Spirit: "rum"})
	require.NoError(t, err)

	require.Len(t, ans.Matches, 1)
	assert.Equal(t, "Daiquiri", ans.Matches[0].Name)
}

func TestBarConstructor_Answer_LimitApplied(t *testing.T) {
	c := newTestConstructor(t)

	ans, err := c.Answer(context.Background(), Request{Question: "sour", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, ans.Matches, 1)
}

func TestBarConstructor_Answer_CacheHit(t *testing.T) {
	c := newTestConstructor(t)
	req := Request{Question: "margarita"}

	first, err := c.Answer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, SourceIndex, first.Source)

	second, err := c.Answer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Matches, second.Matches)
}

func TestBarConstructor_Reload(t *testing.T) {
	cfg := config.DefaultQueryConfig()
	path := writeRecipes(t, testRecipes)
	cfg.RecipeFile = path

	c, err := NewBarConstructor(cfg)
	require.NoError(t, err)
	require.Equal(t, 4, c.RecipeCount())

	// Warm the cache, then change the file underneath.
	_, err = c.Answer(context.Background(), Request{Question: "negroni"})
	require.NoError(t, err)

	updated := testRecipes + `
  - name: Negroni
    spirit: gin
    glass: rocks
    method: stirred
    ingredients: [gin, campari, sweet vermouth]
    tags: [bitter, classic]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	require.NoError(t, c.Reload(context.Background()))
	assert.Equal(t, 5, c.RecipeCount())

	// The cache was flushed, so the new recipe is visible immediately.
	ans, err := c.Answer(context.Background(), Request{Question: "negroni"})
	require.NoError(t, err)
	require.NotEmpty(t, ans.Matches)
	assert.Equal(t, "Negroni", ans.Matches[0].Name)
	assert.Equal(t, SourceIndex, ans.Source)
}

func TestBarConstructor_Reload_FailureKeepsOldIndex(t *testing.T) {
	cfg := config.DefaultQueryConfig()
	path := writeRecipes(t, testRecipes)
	cfg.RecipeFile = path

	c, err := NewBarConstructor(cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("recipes: []"), 0o600))
	require.Error(t, c.Reload(context.Background()))
	assert.Equal(t, 4, c.RecipeCount(), "failed reload must keep the previous knowledge base")
}

func TestDefaultConstructor(t *testing.T) {
	c := NewDefault()

	ans, err := c.Answer(context.Background(), Request{Question: "whiskey sour"})
	require.NoError(t, err)
	assert.Empty(t, ans.Matches)
	assert.Equal(t, SourceNone, ans.Source)

	_, err = c.Construct(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "stopwords removed",
			question: "make me something with gin",
			want:     []string{"gin"},
		},
		{
			name:     "duplicates removed",
			question: "gin gin gin",
			want:     []string{"gin"},
		},
		{
			name:     "synonyms folded",
			question: "bourbon or scotch",
			want:     []string{"whiskey", "or"},
		},
		{
			name:     "empty question",
			question: "",
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTerms(tt.question))
		})
	}
}
