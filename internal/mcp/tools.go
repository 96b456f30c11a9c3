package mcp

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Annotations map[string]any `json:"annotations,omitempty"`
}

// ToolsListResult represents the tools/list response
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

var (
	readOnly    = map[string]any{"readOnlyHint": true}
	destructive = map[string]any{"readOnlyHint": false, "destructiveHint": true}
	additive    = map[string]any{"readOnlyHint": false, "destructiveHint": false}
)

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string, minimum, maximum int) map[string]any {
	return map[string]any{"type": "integer", "description": description, "minimum": minimum, "maximum": maximum}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Inbox
		{
			Name:        "list_unprocessed_notes",
			Description: "List transcribed notes that are not assigned to any project, newest first. Includes processed notes without a project",
			InputSchema: objectSchema(map[string]any{
				"limit":  intProp("Maximum notes to return (default 50)", 1, 500),
				"offset": intProp("Number of notes to skip", 0, 100000),
			}),
			Annotations: readOnly,
		},
		{
			Name:        "read_note",
			Description: "Read one note with its full transcript and project name",
			InputSchema: objectSchema(map[string]any{
				"note_id": stringProp("Note ID"),
			}, "note_id"),
			Annotations: readOnly,
		},
		{
			Name:        "mark_as_processed",
			Description: "Mark a note as processed without moving it",
			InputSchema: objectSchema(map[string]any{
				"note_id": stringProp("Note ID"),
			}, "note_id"),
			Annotations: additive,
		},
		{
			Name:        "bulk_mark_processed",
			Description: "Mark several notes as processed in one write",
			InputSchema: objectSchema(map[string]any{
				"note_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Note IDs to mark",
				},
			}, "note_ids"),
			Annotations: additive,
		},
		{
			Name:        "search_notes",
			Description: "Search completed transcripts for a phrase",
			InputSchema: objectSchema(map[string]any{
				"query":             stringProp("Text to search for"),
				"include_processed": boolProp("Include notes already processed (default false)"),
				"limit":             intProp("Maximum results (default 20)", 1, 100),
			}, "query"),
			Annotations: readOnly,
		},
		{
			Name:        "get_inbox_stats",
			Description: "Count notes overall, unprocessed, from the last 7 days, and in the inbox",
			InputSchema: objectSchema(map[string]any{}),
			Annotations: readOnly,
		},

		// Projects
		{
			Name:        "list_projects",
			Description: "List projects with their note counts, most recently updated first",
			InputSchema: objectSchema(map[string]any{
				"include_archived": boolProp("Include archived projects (default false)"),
			}),
			Annotations: readOnly,
		},
		{
			Name:        "get_project",
			Description: "Get one project by ID",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
			}, "project_id"),
			Annotations: readOnly,
		},
		{
			Name:        "create_project",
			Description: "Create a project to file notes into",
			InputSchema: objectSchema(map[string]any{
				"name":    stringProp("Project name"),
				"purpose": stringProp("Why the project exists"),
				"goal":    stringProp("What done looks like"),
			}, "name"),
			Annotations: additive,
		},
		{
			Name:        "update_project",
			Description: "Change a project's name, purpose, goal, or archived flag",
			InputSchema: objectSchema(map[string]any{
				"project_id":  stringProp("Project ID"),
				"name":        stringProp("New name"),
				"purpose":     stringProp("New purpose"),
				"goal":        stringProp("New goal"),
				"is_archived": boolProp("Archive or unarchive the project"),
			}, "project_id"),
			Annotations: additive,
		},
		{
			Name:        "archive_project",
			Description: "Archive a project so it is no longer offered for triage",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
			}, "project_id"),
			Annotations: additive,
		},
		{
			Name:        "get_notes_by_project",
			Description: "List transcribed notes assigned to a project, newest first",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
				"limit":      intProp("Maximum notes to return (default 50)", 1, 500),
				"offset":     intProp("Number of notes to skip", 0, 100000),
			}, "project_id"),
			Annotations: readOnly,
		},

		// Triage
		{
			Name:        "assign_note_to_project",
			Description: "File a note into a project and mark it processed. Works for inbox notes and for moving between projects",
			InputSchema: objectSchema(map[string]any{
				"note_id":        stringProp("Note ID"),
				"project_id":     stringProp("Target project ID"),
				"allow_archived": boolProp("Permit an archived target project (default false)"),
			}, "note_id", "project_id"),
			Annotations: additive,
		},
		{
			Name:        "unassign_note",
			Description: "Return a note to the inbox and clear its processed flag",
			InputSchema: objectSchema(map[string]any{
				"note_id": stringProp("Note ID"),
			}, "note_id"),
			Annotations: additive,
		},
		{
			Name:        "delete_note",
			Description: "Delete a note permanently",
			InputSchema: objectSchema(map[string]any{
				"note_id": stringProp("Note ID"),
			}, "note_id"),
			Annotations: destructive,
		},
	}
}
