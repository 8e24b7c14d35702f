package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/user"
)

type userPayload struct {
	SigninName  string              `json:"signinName" binding:"required,max=254"`
	DisplayName string              `json:"displayName" binding:"required,max=70"`
	FavProjects []project.Ref       `json:"favProjects"`
	FavTickets  []project.TicketRef `json:"favTickets"`
	Role        string              `json:"role" binding:"max=70"`
	Theme       string              `json:"theme"`
}

func (p userPayload) request() user.Request {
	return user.Request{
		SigninName:  p.SigninName,
		DisplayName: p.DisplayName,
		FavProjects: p.FavProjects,
		FavTickets:  p.FavTickets,
		Role:        p.Role,
		Theme:       p.Theme,
	}
}

// ListUsers returns every user.
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns the user with the sign-in name in the path.
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.svc.Users.GetBySigninName(c.Request.Context(), c.Param("signinName"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// CreateUser stores a new user.
func (h *Handlers) CreateUser(c *gin.Context) {
	var p userPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid user: "+err.Error())
		return
	}
	u, err := h.svc.Users.Create(c.Request.Context(), p.request())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/users/"+url.PathEscape(u.SigninName))
	c.JSON(http.StatusCreated, u)
}

// ReplaceUser overwrites the user with the sign-in name in the path.
func (h *Handlers) ReplaceUser(c *gin.Context) {
	var p userPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid user: "+err.Error())
		return
	}
	if _, err := h.svc.Users.Replace(c.Request.Context(), c.Param("signinName"), p.request()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteUser removes a user.
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.svc.Users.Delete(c.Request.Context(), c.Param("signinName")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
