// Package services holds didakt's application logic behind the driving
// ports.
//
//   - CriteriaService: asks the LLM for filter criteria per resource
//   - ResourceSearchService: turns criteria into repository queries
//   - EnrichmentService: batched enrichment of filter-sourced resources
//   - TemplateValidatorService: parses and schema-checks model output
//   - TemplateWorkflowService: completion and flow generation
//   - SettingsService: reads and writes application settings
//
// Services reach the outside world only through driven ports; the batch
// fan-out uses errgroup and template checks use jsonschema-go.
package services
