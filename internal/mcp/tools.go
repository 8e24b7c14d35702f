package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a tool and its JSON input schema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func objectSchema(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects
		{
			Name:        "list_projects",
			Description: "List all projects with their ticket references",
			InputSchema: objectSchema(nil, map[string]any{}),
		},
		{
			Name:        "get_project",
			Description: "Get a project by name (case-insensitive)",
			InputSchema: objectSchema([]string{"name"}, map[string]any{
				"name": stringProp("Project name"),
			}),
		},
		{
			Name:        "create_project",
			Description: "Create a new empty project",
			InputSchema: objectSchema([]string{"name"}, map[string]any{
				"name": stringProp("Unique project name, at most 70 characters"),
			}),
		},
		{
			Name:        "delete_project",
			Description: "Delete a project that has no tickets left",
			InputSchema: objectSchema([]string{"name"}, map[string]any{
				"name": stringProp("Project name"),
			}),
		},

		// Tickets
		{
			Name:        "list_tickets",
			Description: "List tickets, optionally only those of one project",
			InputSchema: objectSchema(nil, map[string]any{
				"project_name": stringProp("Project name (omit to list every ticket)"),
			}),
		},
		{
			Name:        "get_ticket",
			Description: "Get a ticket by id, including its event log and videos",
			InputSchema: objectSchema([]string{"id"}, map[string]any{
				"id": stringProp("Ticket ID"),
			}),
		},
		{
			Name:        "get_ticket_by_name",
			Description: "Get a ticket by its name within a project",
			InputSchema: objectSchema([]string{"project_name", "ticket_name"}, map[string]any{
				"project_name": stringProp("Project name"),
				"ticket_name":  stringProp("Ticket name"),
			}),
		},
		{
			Name:        "create_ticket",
			Description: "Create an open ticket in an existing project",
			InputSchema: objectSchema([]string{"name", "project_name"}, map[string]any{
				"name":         stringProp("Ticket name, at most 70 characters"),
				"description":  stringProp("Description, at most 500 characters"),
				"project_name": stringProp("Name of the owning project"),
				"creator":      stringProp("Signin name of the reporting user"),
			}),
		},
		{
			Name:        "update_ticket",
			Description: "Replace a ticket's name, description, status, project or videos. One event log entry describing the changes is appended",
			InputSchema: objectSchema([]string{"id", "name", "status"}, map[string]any{
				"id":           stringProp("Ticket ID"),
				"name":         stringProp("Ticket name"),
				"description":  stringProp("Description"),
				"status":       stringProp("Status, e.g. open or closed"),
				"project_name": stringProp("Move the ticket to this project (omit to keep it)"),
				"videos": map[string]any{
					"type":        "array",
					"description": "Full video list (omit to keep the current videos). Videos left out are deleted",
					"items": objectSchema([]string{"id", "title"}, map[string]any{
						"id":           stringProp("Video ID"),
						"title":        stringProp("Video title"),
						"fileLocation": stringProp("Blob URL"),
						"thumbnail":    stringProp("Thumbnail"),
						"notes": map[string]any{
							"type": "array",
							"items": objectSchema([]string{"time", "text"}, map[string]any{
								"time": map[string]any{"type": "number", "description": "Offset in seconds"},
								"text": stringProp("Note text"),
							}),
						},
					}),
				},
			}),
		},
		{
			Name:        "delete_ticket",
			Description: "Delete a ticket with its videos and project reference",
			InputSchema: objectSchema([]string{"id"}, map[string]any{
				"id": stringProp("Ticket ID"),
			}),
		},

		// Users
		{
			Name:        "list_users",
			Description: "List all users",
			InputSchema: objectSchema(nil, map[string]any{}),
		},
		{
			Name:        "get_user",
			Description: "Get a user by signin name",
			InputSchema: objectSchema([]string{"signin_name"}, map[string]any{
				"signin_name": stringProp("Signin name (email)"),
			}),
		},

		// Videos
		{
			Name:        "list_videos",
			Description: "List stored video blobs",
			InputSchema: objectSchema(nil, map[string]any{}),
		},
		{
			Name:        "prune_videos",
			Description: "Delete video blobs that no ticket refers to",
			InputSchema: objectSchema(nil, map[string]any{}),
		},

		// Activity
		{
			Name:        "list_activity",
			Description: "List recent changes, newest first",
			InputSchema: objectSchema(nil, map[string]any{
				"entity_type": map[string]any{
					"type": "string",
					"enum": []string{"project", "ticket", "user"},
				},
				"entity_id": stringProp("Only entries about this entity"),
				"type":      stringProp("Activity type, e.g. ticket_created"),
				"limit":     intProp("Maximum number of entries"),
				"offset":    intProp("Offset for pagination"),
			}),
		},
	}
}

func registerTools(server *sdkmcp.Server, h *Handler, logger *slog.Logger) {
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
			if err != nil {
				return toolError(logger, name, err), nil
			}
			return jsonResult(result)
		})
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports a failed call in the result so the client can react.
func toolError(logger *slog.Logger, name string, err error) *sdkmcp.CallToolResult {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		logger.Error("tool failed", "tool", name, "error", err)
		apiErr = &APIError{Code: "INTERNAL", Message: "internal error"}
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
