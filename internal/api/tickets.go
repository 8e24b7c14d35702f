package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/video"
)

// Multipart field names used by the upload endpoints.
const (
	videoFilesField      = "videoFiles"
	videoThumbnailsField = "videoThumbnails"
)

type ticketCreatePayload struct {
	Name        string `json:"name" form:"name" binding:"required,max=70"`
	Description string `json:"description" form:"description" binding:"max=500"`
	ProjectName string `json:"projectName" form:"projectName" binding:"required"`
	Creator     string `json:"creator" form:"creator"`
}

type ticketReplacePayload struct {
	ID          string        `json:"id" form:"id" binding:"required"`
	Name        string        `json:"name" form:"name" binding:"required,max=70"`
	Description string        `json:"description" form:"description" binding:"max=500"`
	ProjectName string        `json:"projectName" form:"projectName"`
	Status      string        `json:"status" form:"status" binding:"required"`
	Videos      []video.Video `json:"videos" form:"-"`
}

func (p ticketCreatePayload) request(files []video.File) ticket.CreateRequest {
	return ticket.CreateRequest{
		Name:        p.Name,
		Description: p.Description,
		ProjectName: p.ProjectName,
		Creator:     p.Creator,
		Files:       files,
	}
}

func (p ticketReplacePayload) request(files []video.File) ticket.ReplaceRequest {
	return ticket.ReplaceRequest{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		ProjectName: p.ProjectName,
		Videos:      p.Videos,
		Files:       files,
	}
}

// ListTickets returns every ticket.
func (h *Handlers) ListTickets(c *gin.Context) {
	tickets, err := h.svc.Tickets.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// GetTicket returns a ticket by id.
func (h *Handlers) GetTicket(c *gin.Context) {
	t, err := h.svc.Tickets.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTicket creates a ticket from a JSON body without videos.
func (h *Handlers) CreateTicket(c *gin.Context) {
	var p ticketCreatePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid ticket: "+err.Error())
		return
	}
	h.createTicket(c, p.request(nil))
}

// CreateTicketWithVideos creates a ticket from a multipart form whose
// video parts are uploaded before the ticket is stored.
func (h *Handlers) CreateTicketWithVideos(c *gin.Context) {
	var p ticketCreatePayload
	if err := c.ShouldBind(&p); err != nil {
		h.badRequest(c, "invalid ticket: "+err.Error())
		return
	}
	files, closeFiles, err := formVideos(c)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	defer closeFiles()
	h.createTicket(c, p.request(files))
}

func (h *Handlers) createTicket(c *gin.Context, req ticket.CreateRequest) {
	t, err := h.svc.Tickets.Create(c.Request.Context(), req)
	if err != nil {
		h.failTicketWrite(c, err)
		return
	}
	c.Header("Location", "/api/tickets/"+t.ID)
	c.JSON(http.StatusCreated, t)
}

// ReplaceTicket overwrites a ticket from a JSON body. The submitted
// videos replace the stored set.
func (h *Handlers) ReplaceTicket(c *gin.Context) {
	var p ticketReplacePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid ticket: "+err.Error())
		return
	}
	h.replaceTicket(c, p, nil)
}

// ReplaceTicketWithVideos overwrites a ticket and appends the uploaded
// video parts to its videos.
func (h *Handlers) ReplaceTicketWithVideos(c *gin.Context) {
	var p ticketReplacePayload
	if err := c.ShouldBind(&p); err != nil {
		h.badRequest(c, "invalid ticket: "+err.Error())
		return
	}
	files, closeFiles, err := formVideos(c)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	defer closeFiles()
	if len(files) == 0 {
		h.badRequest(c, "at least one video file is required")
		return
	}
	h.replaceTicket(c, p, files)
}

func (h *Handlers) replaceTicket(c *gin.Context, p ticketReplacePayload, files []video.File) {
	if p.ID != c.Param("id") {
		h.badRequest(c, "ticket id does not match the URL")
		return
	}
	if _, err := h.svc.Tickets.Replace(c.Request.Context(), p.request(files)); err != nil {
		h.failTicketWrite(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteTicket removes a ticket together with its project reference and videos.
func (h *Handlers) DeleteTicket(c *gin.Context) {
	if err := h.svc.Tickets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// formVideos opens the uploaded video parts and pairs them with their
// thumbnails. The returned func closes every opened part.
func formVideos(c *gin.Context) ([]video.File, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, errors.New("invalid multipart form")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	headers := form.File[videoFilesField]
	files := make([]video.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, errors.New("unreadable video file " + fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, video.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}

	paired, err := video.Pair(files, form.Value[videoThumbnailsField])
	if err != nil {
		closeAll()
		return nil, noop, err
	}
	return paired, closeAll, nil
}
