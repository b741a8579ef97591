package prompts

import _ "embed"

// ParseHeader is the static header part of the task-parse system prompt.
// The date context is inserted between the header and the rules at request
// time so relative date expressions resolve against the current day.
//
//go:embed system_header.md
var ParseHeader string

// ParseRules is the static rules part of the task-parse system prompt.
//
//go:embed system_rules.md
var ParseRules string
