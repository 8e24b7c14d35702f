package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
)

// Handler dispatches MCP tool calls to the domain services.
type Handler struct {
	svc Services
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Handle runs the named tool with JSON-encoded arguments. Domain errors
// come back as *APIError.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_projects":
		return h.svc.Projects.GetAll(ctx)
	case "get_project":
		var req NameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Projects.GetByName(ctx, req.Name)
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Projects.Create(ctx, project.CreateRequest{Name: req.Name})
	case "delete_project":
		var req NameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.svc.Projects.Delete(ctx, req.Name); err != nil {
			return nil, err
		}
		return DeletedResult{Deleted: req.Name}, nil

	case "list_tickets":
		var req ListTicketsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ProjectName != "" {
			return h.svc.Tickets.ListByProject(ctx, req.ProjectName)
		}
		return h.svc.Tickets.GetAll(ctx)
	case "get_ticket":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Tickets.GetByID(ctx, req.ID)
	case "get_ticket_by_name":
		var req GetTicketByNameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Tickets.GetByName(ctx, req.ProjectName, req.TicketName)
	case "create_ticket":
		var req CreateTicketParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Tickets.Create(ctx, ticket.CreateRequest{
			Name:        req.Name,
			Description: req.Description,
			ProjectName: req.ProjectName,
			Creator:     req.Creator,
		})
	case "update_ticket":
		var req UpdateTicketParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.updateTicket(ctx, req)
	case "delete_ticket":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.svc.Tickets.Delete(ctx, req.ID); err != nil {
			return nil, err
		}
		return DeletedResult{Deleted: req.ID}, nil

	case "list_users":
		return h.svc.Users.GetAll(ctx)
	case "get_user":
		var req GetUserParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Users.GetBySigninName(ctx, req.SigninName)

	case "list_videos":
		return h.svc.Videos.List(ctx)
	case "prune_videos":
		deleted, err := h.svc.Tickets.PruneVideos(ctx)
		if err != nil {
			return nil, err
		}
		if deleted == nil {
			deleted = []string{}
		}
		return PruneResult{Deleted: deleted}, nil

	case "list_activity":
		var req ListActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{EntityID: req.EntityID, Limit: req.Limit, Offset: req.Offset}
		if req.EntityType != "" {
			et := activity.EntityType(req.EntityType)
			opts.EntityType = &et
		}
		if req.Type != "" {
			at := activity.ActivityType(req.Type)
			opts.ActivityType = &at
		}
		return h.svc.Activity.GetRecentActivity(ctx, opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, method)
}

func (h *Handler) updateTicket(ctx context.Context, req UpdateTicketParams) (*ticket.Ticket, error) {
	videos := req.Videos
	if videos == nil {
		current, err := h.svc.Tickets.GetByID(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		videos = &current.Videos
	}
	return h.svc.Tickets.Replace(ctx, ticket.ReplaceRequest{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		ProjectName: req.ProjectName,
		Videos:      *videos,
	})
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error()}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
