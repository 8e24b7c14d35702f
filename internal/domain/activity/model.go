package activity

import "time"

// EntityType names the kind of document an activity refers to
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityTicket  EntityType = "ticket"
	EntityUser    EntityType = "user"
)

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated  ActivityType = "project_created"
	TypeProjectReplaced ActivityType = "project_replaced"
	TypeProjectDeleted  ActivityType = "project_deleted"
	TypeTicketCreated   ActivityType = "ticket_created"
	TypeTicketReplaced  ActivityType = "ticket_replaced"
	TypeTicketDeleted   ActivityType = "ticket_deleted"
	TypeUserCreated     ActivityType = "user_created"
	TypeUserReplaced    ActivityType = "user_replaced"
	TypeUserDeleted     ActivityType = "user_deleted"
	TypeVideosPruned    ActivityType = "videos_pruned"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	EntityType   EntityType   `json:"entityType"`
	EntityID     string       `json:"entityId"`
	EntityName   string       `json:"entityName,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"createdAt"`
}
