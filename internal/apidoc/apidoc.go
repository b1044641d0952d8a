// Package apidoc holds the service's OpenAPI description. The document
// is embedded, validated at startup and served on /docs.
package apidoc

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specData []byte

// Endpoint is one operation of the service API.
type Endpoint struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
}

// Doc is the parsed, validated API description.
type Doc struct {
	doc       *openapi3.T
	endpoints []Endpoint
}

// Load parses and validates the embedded OpenAPI document.
func Load(ctx context.Context) (*Doc, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(specData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("embedded OpenAPI document is invalid: %w", err)
	}

	endpoints := make([]Endpoint, 0)
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			endpoints = append(endpoints, Endpoint{
				Method:  method,
				Path:    path,
				Summary: op.Summary,
			})
		}
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Path != endpoints[j].Path {
			return endpoints[i].Path < endpoints[j].Path
		}
		return endpoints[i].Method < endpoints[j].Method
	})

	return &Doc{doc: doc, endpoints: endpoints}, nil
}

// Title returns the API title.
func (d *Doc) Title() string {
	return d.doc.Info.Title
}

// Version returns the API version.
func (d *Doc) Version() string {
	return d.doc.Info.Version
}

// Endpoints returns all operations in path order.
func (d *Doc) Endpoints() []Endpoint {
	return d.endpoints
}
