package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/domain/activity"
)

// ListVideos lists the stored video blobs.
func (h *Handlers) ListVideos(c *gin.Context) {
	videos, err := h.svc.Videos.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// PruneVideos deletes blobs no ticket refers to.
func (h *Handlers) PruneVideos(c *gin.Context) {
	deleted, err := h.svc.Tickets.PruneVideos(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type activityQuery struct {
	EntityType string `form:"entityType" binding:"omitempty,oneof=project ticket user"`
	EntityID   string `form:"entityId"`
	Type       string `form:"type"`
	Limit      int    `form:"limit" binding:"min=0"`
	Offset     int    `form:"offset" binding:"min=0"`
}

// ListActivity returns recorded activity, optionally filtered by the
// entityType, entityId and type query parameters and paged by limit and offset.
func (h *Handlers) ListActivity(c *gin.Context) {
	var q activityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "invalid activity query: "+err.Error())
		return
	}

	opts := activity.ListActivityOptions{EntityID: q.EntityID, Limit: q.Limit, Offset: q.Offset}
	if q.EntityType != "" {
		et := activity.EntityType(q.EntityType)
		opts.EntityType = &et
	}
	if q.Type != "" {
		at := activity.ActivityType(q.Type)
		opts.ActivityType = &at
	}

	entries, err := h.svc.Activity.GetRecentActivity(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
