// Package mcp serves the folder catalog over the Model Context Protocol.
//
// The server exposes tools to list tracked folders, classify an arbitrary
// directory, inspect the loaded folder types and pin a folder's type. It
// runs over stdio by default, or over streamable HTTP when given an address.
package mcp

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

const (
	name         = "foldex"
	instructions = `MCP Server 'foldex' tracks project folders and classifies them by the files they contain (e.g. Next.js, Flutter, Python).

When to use these tools:
- Finding which project folders the user works with and what kind of project each one is
- Working out why a directory is (or is not) detected as a given project type
- Correcting a wrong classification

Workflow:
1. Use 'get_folders' to list tracked folders. Types are refreshed from disk before the list is returned.
2. Use 'classify_path' with an ABSOLUTE directory path to see how it would be classified, including which rule clauses passed.
3. Use 'list_folder_types' to get the valid type ids before calling 'override_folder_type'.
4. 'override_folder_type' pins a type so it is no longer refreshed. 'unlock_folder_type' reverses this.

IMPORTANT: Folder ids come from 'get_folders'. Do not guess them.
`
)

func newPathSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path": {
				Type:        "string",
				Description: description,
			},
		},
		Required: []string{"path"},
	}
}

func newFolderIDSchema(extra map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"id": {
			Type:        "integer",
			Description: "The id of a tracked folder, as returned by get_folders.",
		},
	}
	for k, v := range extra {
		props[k] = v
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"id"}, required...),
	}
}
