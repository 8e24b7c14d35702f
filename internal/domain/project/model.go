package project

import "github.com/rpggio/issuesuite/internal/repository"

// Project groups tickets. Tickets mirrors the tickets whose projectName
// refers to this project.
type Project struct {
	repository.Meta
	Name    string      `json:"name"`
	Tickets []TicketRef `json:"tickets"`
}

// LookupKey indexes projects by name.
func (p *Project) LookupKey() string { return p.Name }

// TicketRef is the denormalized reference a project keeps per ticket.
type TicketRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ref is a lightweight reference to a project.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UpsertTicketRef adds ref or renames the existing ref with the same id.
// It reports whether the project changed.
func (p *Project) UpsertTicketRef(ref TicketRef) bool {
	for i := range p.Tickets {
		if p.Tickets[i].ID == ref.ID {
			if p.Tickets[i].Name == ref.Name {
				return false
			}
			p.Tickets[i].Name = ref.Name
			return true
		}
	}
	p.Tickets = append(p.Tickets, ref)
	return true
}

// RemoveTicketRef drops the ref with the given ticket id and reports
// whether one was present.
func (p *Project) RemoveTicketRef(ticketID string) bool {
	for i := range p.Tickets {
		if p.Tickets[i].ID == ticketID {
			p.Tickets = append(p.Tickets[:i], p.Tickets[i+1:]...)
			return true
		}
	}
	return false
}

// FindTicketRef returns the ref whose name matches case-insensitively.
func (p *Project) FindTicketRef(name string) (TicketRef, bool) {
	for _, ref := range p.Tickets {
		if repository.SameKey(ref.Name, name) {
			return ref, true
		}
	}
	return TicketRef{}, false
}
