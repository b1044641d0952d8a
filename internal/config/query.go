package config

import (
	"fmt"
	"time"
)

// QueryConfig configures the query construction layer
type QueryConfig struct {
	// RecipeFile is the YAML knowledge base the bar constructor is built from
	RecipeFile string `json:"recipe_file" yaml:"recipe_file"`
	// CacheTTL is how long constructed answers are kept in the memory layer
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	// MaxResults caps the number of matches returned per answer
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DefaultQueryConfig returns the default query configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		RecipeFile: "data/recipes.yaml",
		CacheTTL:   5 * time.Minute,
		MaxResults: 5,
	}
}

// Validate validates the query configuration
func (q *QueryConfig) Validate() error {
	if q.RecipeFile == "" {
		return fmt.Errorf("recipe_file cannot be empty")
	}
	if q.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl cannot be negative")
	}
	if q.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive")
	}
	return nil
}
