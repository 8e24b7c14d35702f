package mcp

import "github.com/rpggio/issuesuite/internal/domain/video"

type NameParams struct {
	Name string `json:"name"`
}

type IDParams struct {
	ID string `json:"id"`
}

type CreateProjectParams struct {
	Name string `json:"name"`
}

type ListTicketsParams struct {
	ProjectName string `json:"project_name,omitempty"`
}

type GetTicketByNameParams struct {
	ProjectName string `json:"project_name"`
	TicketName  string `json:"ticket_name"`
}

type CreateTicketParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProjectName string `json:"project_name"`
	Creator     string `json:"creator,omitempty"`
}

// UpdateTicketParams replaces a ticket. Nil Videos keeps the stored videos;
// a present list replaces them and drops the blobs of omitted ones.
type UpdateTicketParams struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	ProjectName string         `json:"project_name,omitempty"`
	Videos      *[]video.Video `json:"videos,omitempty"`
}

type GetUserParams struct {
	SigninName string `json:"signin_name"`
}

type ListActivityParams struct {
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	Type       string `json:"type,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type DeletedResult struct {
	Deleted string `json:"deleted"`
}

type PruneResult struct {
	Deleted []string `json:"deleted"`
}
