package user

import (
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/repository"
)

// User is an account with its favourite projects and tickets.
type User struct {
	repository.Meta
	SigninName  string              `json:"signinName"`
	DisplayName string              `json:"displayName"`
	FavProjects []project.Ref       `json:"favProjects"`
	FavTickets  []project.TicketRef `json:"favTickets"`
	Role        string              `json:"role,omitempty"`
	Theme       string              `json:"theme,omitempty"`
}

// LookupKey indexes users by signin name.
func (u *User) LookupKey() string { return u.SigninName }
