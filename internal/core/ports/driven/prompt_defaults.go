package driven

// DefaultPrompts returns the embedded prompt templates keyed by prompt name.
// Stores fall back to these when a user file is missing or unreadable.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptSearchTerm: `You help teachers find learning resources in an educational content repository.

Resource name: %s
Resource type: %s
Subject: %s
Educational level: %s
Used in: %s

Name the core topic of this resource as a search term of one or two words.
Do NOT include the resource type (worksheet, video, ...), the subject name or the educational level.
Answer with JSON only: {"value": "<search term>"}`,

		PromptContentType: `Classify the learning resource below into exactly one content type.

Resource name: %s
Resource type: %s
Used in: %s

Allowed content types:
%s

Answer with JSON only: {"value": "<one of the allowed content types>"}`,

		PromptDiscipline: `Assign the learning resource below to exactly one school subject.

Resource name: %s
Stated subject: %s
Used in: %s

Allowed subjects:
%s

Answer with JSON only: {"value": "<one of the allowed subjects>"}`,

		PromptEducationalContext: `Assign the learning resource below to exactly one educational level.

Resource name: %s
Stated level or target group: %s

Allowed levels:
%s

Answer with JSON only: {"value": "<one of the allowed levels>"}`,

		PromptTemplateComplete: `You are an instructional designer. Below is a didactic template as JSON.
It has the top-level sections metadata, problem, context, influence_factors, solution,
consequences, implementation_notes, related_patterns, feedback, sources, actors and environments.

Current template:
%s

Instructions from the author:
%s

Return the complete, updated template as a single JSON object with all top-level sections.
Keep every id that already exists. Do not add commentary outside the JSON.`,

		PromptFlowGenerate: `You are an instructional designer. Below is a didactic template as JSON.

%s

Design the teaching flow in solution.didactic_template.learning_sequences: each sequence has
sequence_id, sequence_name and phases; each phase has phase_id, phase_name, time_frame,
learning_goal and activities; each activity has activity_id, name, description, duration and
roles; each role has role_name, actor_id, task_description and learning_environment with
environment_id, selected_materials, selected_tools and selected_services.
Only reference actor and resource ids that exist in the template.

Return the complete template as a single JSON object. Do not add commentary outside the JSON.`,
	}
}
