package ticket

import (
	"time"

	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository"
)

// StatusOpen is the status every new ticket starts in.
const StatusOpen = "open"

// Ticket is an issue belonging to exactly one project.
type Ticket struct {
	repository.Meta
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ProjectName string        `json:"projectName"`
	Status      string        `json:"status"`
	Creator     string        `json:"creator"`
	EventLog    []LogEntry    `json:"eventLog"`
	Videos      []video.Video `json:"videos"`
}

// LookupKey indexes tickets by name.
func (t *Ticket) LookupKey() string { return t.Name }

// Ref returns the reference the owning project keeps for t.
func (t *Ticket) Ref() project.TicketRef {
	return project.TicketRef{ID: t.ID, Name: t.Name}
}

// LogEntry is one event in a ticket's audit trail.
type LogEntry struct {
	Timestamp time.Time `json:"dateAndTime"`
	Event     string    `json:"event"`
}
