package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/domain/project"
)

type projectPayload struct {
	Name    string              `json:"name" binding:"required,max=70"`
	Tickets []project.TicketRef `json:"tickets"`
}

// ListProjects returns every project.
func (h *Handlers) ListProjects(c *gin.Context) {
	projects, err := h.svc.Projects.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject returns the project named in the path, matched case-insensitively.
func (h *Handlers) GetProject(c *gin.Context) {
	proj, err := h.svc.Projects.GetByName(c.Request.Context(), c.Param("projectName"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proj)
}

// CreateProject stores a new project from the JSON body.
func (h *Handlers) CreateProject(c *gin.Context) {
	var p projectPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid project: "+err.Error())
		return
	}

	proj, err := h.svc.Projects.Create(c.Request.Context(), project.CreateRequest{Name: p.Name, Tickets: p.Tickets})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/projects/"+url.PathEscape(proj.Name))
	c.JSON(http.StatusCreated, proj)
}

// ReplaceProject overwrites the project named in the path, including
// its ticket references.
func (h *Handlers) ReplaceProject(c *gin.Context) {
	var p projectPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid project: "+err.Error())
		return
	}

	_, err := h.svc.Projects.Replace(c.Request.Context(), c.Param("projectName"), project.ReplaceRequest{Name: p.Name, Tickets: p.Tickets})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteProject removes an empty project. A project that still lists
// tickets is rejected with 400.
func (h *Handlers) DeleteProject(c *gin.Context) {
	if err := h.svc.Projects.Delete(c.Request.Context(), c.Param("projectName")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProjectTickets returns the tickets a project references.
func (h *Handlers) ListProjectTickets(c *gin.Context) {
	tickets, err := h.svc.Tickets.ListByProject(c.Request.Context(), c.Param("projectName"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// GetTicketByName resolves a ticket by name within its project.
func (h *Handlers) GetTicketByName(c *gin.Context) {
	t, err := h.svc.Tickets.GetByName(c.Request.Context(), c.Param("projectName"), c.Param("ticketName"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
