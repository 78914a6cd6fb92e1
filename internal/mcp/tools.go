package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools adds every catalog tool to server, dispatching to h.
func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, name, args)
			return toolResult(result, err), nil
		})
	}
}

// toolResult renders a handler result as JSON text. Errors become tool
// errors carrying an APIError payload so clients can branch on the code.
func toolResult(result any, err error) *sdkmcp.CallToolResult {
	if err == nil {
		text, encErr := json.Marshal(result)
		if encErr == nil {
			return &sdkmcp.CallToolResult{
				Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
			}
		}
		err = fmt.Errorf("encoding result: %w", encErr)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	text, encErr := json.Marshal(apiErr)
	if encErr != nil {
		text, _ = json.Marshal(APIError{Code: apiErr.Code, Message: apiErr.Message})
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func transitionTool(name, description string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: objectSchema(map[string]any{
			"code": stringProp("Document code"),
			"note": stringProp("Reason for the transition (3 to 2000 characters)"),
		}, "code", "note"),
	}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	docTypes := []string{"PART", "ASSY", "MACHINE", "GROUP"}
	sequenceSchema := objectSchema(map[string]any{
		"doc_type": enumProp("PART numbers count up from 1, ASSY numbers count down from 9999", "PART", "ASSY"),
		"mmm":      stringProp("Machine segment, 3 letters"),
		"gggg":     stringProp("Group segment, 4 letters"),
		"vvv":      stringProp("Optional variant, 3 alphanumerics"),
	}, "doc_type", "mmm", "gggg")

	return []ToolDefinition{
		// Codes
		{
			Name:        "allocate_sequence",
			Description: "Reserve the next PART or ASSY number for a machine/group/variant scope",
			InputSchema: sequenceSchema,
		},
		{
			Name:        "peek_sequence",
			Description: "Show the number allocate_sequence would return, without reserving it",
			InputSchema: sequenceSchema,
		},
		{
			Name:        "allocate_version",
			Description: "Reserve the next MACHINE or GROUP version number",
			InputSchema: objectSchema(map[string]any{
				"doc_type": enumProp("Document type", "MACHINE", "GROUP"),
				"mmm":      stringProp("Machine segment, 3 letters"),
				"gggg":     stringProp("Group segment, 4 letters (GROUP only)"),
			}, "doc_type", "mmm"),
		},

		// Catalog
		{
			Name:        "create_document",
			Description: "Allocate a code and create a WIP document at revision 0 with its archive folders",
			InputSchema: objectSchema(map[string]any{
				"doc_type":    enumProp("Document type (PRT, ASM, SLDPRT and SLDASM are accepted too)", docTypes...),
				"mmm":         stringProp("Machine segment, 3 letters"),
				"gggg":        stringProp("Group segment, 4 letters (not used for MACHINE)"),
				"vvv":         stringProp("Optional variant, 3 alphanumerics (PART and ASSY)"),
				"description": stringProp("Free-text description"),
			}, "doc_type", "mmm"),
		},
		{
			Name:        "get_document",
			Description: "Get a document by code",
			InputSchema: objectSchema(map[string]any{
				"code": stringProp("Document code"),
			}, "code"),
		},
		{
			Name:        "search_documents",
			Description: "Search documents by free text over code and description, with optional filters. OBS documents are hidden unless include_obs is set or state is OBS",
			InputSchema: objectSchema(map[string]any{
				"query":       stringProp("Free-text query"),
				"mmm":         stringProp("Machine filter"),
				"gggg":        stringProp("Group filter"),
				"vvv":         stringProp("Variant filter"),
				"state":       enumProp("State filter", "WIP", "REL", "IN_REV", "OBS"),
				"doc_type":    enumProp("Type filter", docTypes...),
				"include_obs": map[string]any{"type": "boolean", "description": "Include obsolete documents"},
				"limit":       map[string]any{"type": "integer", "description": "Maximum number of results"},
			}),
		},

		// Workflow
		transitionTool("release_wip", "Release a WIP document: move its files from wip to rel and write-protect them"),
		transitionTool("create_inrev", "Open a revision on a REL document: copy its files to inrev as CODE_Rnn__INREV"),
		transitionTool("approve_inrev", "Approve an open revision: archive rel to rev as CODE_Rnn, promote inrev to rel, revision+1"),
		transitionTool("cancel_inrev", "Cancel an open revision: delete the inrev copies and return to REL"),
		transitionTool("set_obsolete", "Mark a document OBS, remembering its current state"),
		transitionTool("restore_obsolete", "Return an OBS document to the state it had before"),

		// Locks
		{
			Name:        "acquire_document_lock",
			Description: "Take or refresh the advisory lock on a document for this session",
			InputSchema: objectSchema(map[string]any{
				"code":        stringProp("Document code"),
				"ttl_seconds": map[string]any{"type": "integer", "description": "Lease length in seconds (minimum 10, default from config)"},
			}, "code"),
		},
		{
			Name:        "release_document_lock",
			Description: "Release this session's lock on a document",
			InputSchema: objectSchema(map[string]any{
				"code": stringProp("Document code"),
			}, "code"),
		},
		{
			Name:        "list_document_locks",
			Description: "List live document locks",
			InputSchema: objectSchema(map[string]any{}),
		},

		// Maintenance
		{
			Name:        "run_archive_layout_migration",
			Description: "Move archive files into the canonical layout. Without apply it only reports the plan",
			InputSchema: objectSchema(map[string]any{
				"apply": map[string]any{"type": "boolean", "description": "Perform the moves and update the catalog"},
			}),
		},
		{
			Name:        "recent_activity",
			Description: "List recent activity log entries, newest first",
			InputSchema: objectSchema(map[string]any{
				"code":       stringProp("Document code filter"),
				"action":     stringProp("Action filter, e.g. WF_RELEASE"),
				"session_id": stringProp("Session filter"),
				"limit":      map[string]any{"type": "integer", "description": "Maximum number of entries"},
			}),
		},
	}
}
