package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `issuesuite tracks Projects, Tickets, Users and the Videos attached to tickets.

Core concepts:
- Project: named container. Its tickets[] list holds {id, name} references to its tickets.
- Ticket: belongs to exactly one project (projectName). Carries status, an append-only eventLog and videos.
- Video: a blob in storage referenced by fileLocation, with timestamped notes.

Rules of engagement:
1) Browse with list_projects / list_tickets / get_ticket_by_name.
2) Create tickets with create_ticket; the project must already exist.
3) update_ticket replaces the ticket; a single event log entry summarizing the changes is appended.
   Omit videos to keep them; pass the full list to change notes or drop videos.
4) On CONFLICT, fetch the ticket again and reapply your change.
5) delete_project only succeeds once the project has no tickets.

Docs:
- issuesuite://docs/data-model (fields, limits and consistency guarantees)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "issuesuite://docs/data-model",
		Name:        "data_model",
		Title:       "issuesuite data model",
		Description: "Fields, limits and consistency guarantees for projects, tickets, users and videos.",
		Content: `# issuesuite data model

## Project
- name: required, at most 70 characters, unique ignoring case.
- tickets: [{id, name}] for every ticket whose projectName is this project.

## Ticket
- name: required, at most 70 characters. Unique within its project by convention.
- description: at most 500 characters.
- status: free text; new tickets are "open".
- eventLog: [{dateAndTime, event}], one entry per create or update, never rewritten.
- videos: [{id, title, fileLocation, thumbnail, notes: [{time, text}]}].

## User
- signinName: required, at most 254 characters, unique ignoring case.
- displayName: required, at most 70 characters.
- favProjects, favTickets: references in the same {id, name} shape.

## Consistency
- Creating, renaming, moving or deleting a ticket updates the project's reference list.
- Project documents are updated with a revision check and retried on conflict.
- Removing a video from a ticket deletes its blob. prune_videos removes blobs no ticket refers to.
- Renaming a project does not rewrite the projectName of its tickets.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
