// Package file keeps didakt's user-editable state under ~/.didakt:
// config.toml (ConfigStore) and the prompts/ directory (PromptStore).
package file
