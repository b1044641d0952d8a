package query

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Recipe is one entry of the knowledge base.
type Recipe struct {
	Name        string   `yaml:"name" json:"name"`
	Spirit      string   `yaml:"spirit" json:"spirit"`
	Glass       string   `yaml:"glass" json:"glass"`
	Method      string   `yaml:"method" json:"method"`
	Ingredients []string `yaml:"ingredients" json:"ingredients"`
	Tags        []string `yaml:"tags" json:"tags"`
}

type recipeFile struct {
	Recipes []Recipe `yaml:"recipes"`
}

// knowledgeBase is an immutable snapshot of the recipe file. Reloads
// build a fresh snapshot and swap it in wholesale.
type knowledgeBase struct {
	recipes  []Recipe
	loadedAt time.Time
}

// loadKnowledgeBase reads and indexes the recipe file. Any failure here
// is a construction error: the caller is expected to abort startup.
func loadKnowledgeBase(path string) (*knowledgeBase, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file %s: %w", path, err)
	}

	var file recipeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recipe file %s: %w", path, err)
	}

	if len(file.Recipes) == 0 {
		return nil, fmt.Errorf("recipe file %s contains no recipes", path)
	}
	for i, r := range file.Recipes {
		if r.Name == "" {
			return nil, fmt.Errorf("recipe file %s: recipe %d has no name", path, i)
		}
	}

	return &knowledgeBase{
		recipes:  file.Recipes,
		loadedAt: time.Now(),
	}, nil
}

// search scores every recipe against the query and returns matches in
// descending score order, capped at q.Limit.
func (kb *knowledgeBase) search(q *Query) []Match {
	matches := make([]Match, 0, q.Limit)

	for i := range kb.recipes {
		r := &kb.recipes[i]
		if q.Spirit != "" && normalize(r.Spirit) != q.Spirit {
			continue
		}
		if q.Glass != "" && normalize(r.Glass) != q.Glass {
			continue
		}

		score := scoreRecipe(r, q.Terms)
		if score == 0 && len(q.Terms) > 0 {
			continue
		}

		matches = append(matches, Match{
			Name:        r.Name,
			Spirit:      r.Spirit,
			Glass:       r.Glass,
			Method:      r.Method,
			Ingredients: r.Ingredients,
			Score:       score,
		})
	}

	sortMatches(matches)
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches
}

// scoreRecipe weights name hits above ingredient and tag hits.
func scoreRecipe(r *Recipe, terms []string) int {
	name := strings.ToLower(r.Name)
	score := 0

	for _, term := range terms {
		if strings.Contains(name, term) {
			score += 3
		}
		for _, ing := range r.Ingredients {
			if strings.Contains(strings.ToLower(ing), term) {
				score += 2
				break
			}
		}
		for _, tag := range r.Tags {
			if normalize(tag) == term {
				score++
				break
			}
		}
		if normalize(r.Spirit) == term {
			score += 2
		}
	}
	return score
}

// sortMatches orders by score descending, name ascending for stability.
func sortMatches(matches []Match) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0; j-- {
			a, b := &matches[j-1], &matches[j]
			if b.Score > a.Score || (b.Score == a.Score && b.Name < a.Name) {
				matches[j-1], matches[j] = matches[j], matches[j-1]
			} else {
				break
			}
		}
	}
}
