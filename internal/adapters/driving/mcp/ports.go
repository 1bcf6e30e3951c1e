package mcp

import (
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Validator parses and schema-checks template documents.
	Validator driving.TemplateValidator

	// Criteria generates filter criteria for a single resource.
	Criteria driving.CriteriaGenerator

	// Enricher runs criteria generation and enrichment over templates.
	Enricher driving.ResourceEnricher

	// Searcher queries the content repository.
	Searcher driving.ResourceSearcher

	// Templates runs completion and flow generation.
	Templates driving.TemplateService

	// Settings supplies run defaults. Built-in defaults are used when nil.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Validator == nil {
		return ErrMissingValidator
	}
	// Every other port is optional; its tools are not registered when nil
	return nil
}
