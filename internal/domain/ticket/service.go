package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDeleteConcurrency = 4
	defaultPruneGrace        = 15 * time.Minute
)

// Service handles ticket operations and keeps projects and video blobs
// consistent with the stored tickets.
type Service struct {
	tickets    repository.Collection[*Ticket]
	projects   ProjectDirectory
	videos     VideoManager
	activities ActivityRecorder
	logger     *slog.Logger

	now               func() time.Time
	deleteConcurrency int
	pruneGrace        time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source used for log entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDeleteConcurrency bounds parallel blob deletions.
func WithDeleteConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.deleteConcurrency = n
		}
	}
}

// WithPruneGrace sets how old an unreferenced blob must be before
// PruneVideos removes it.
func WithPruneGrace(d time.Duration) Option {
	return func(s *Service) { s.pruneGrace = d }
}

// NewService creates a new ticket service. activities may be nil.
func NewService(
	tickets repository.Collection[*Ticket],
	projects ProjectDirectory,
	videos VideoManager,
	activities ActivityRecorder,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		tickets:           tickets,
		projects:          projects,
		videos:            videos,
		activities:        activities,
		logger:            logger,
		now:               time.Now,
		deleteConcurrency: defaultDeleteConcurrency,
		pruneGrace:        defaultPruneGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest describes a ticket creation request.
type CreateRequest struct {
	Name        string
	Description string
	ProjectName string
	Creator     string
	Files       []video.File
}

// ReplaceRequest carries the full new state of a ticket. When Files is
// non-empty the uploads are appended and Videos is ignored; otherwise
// Videos replaces the stored set. An empty ProjectName keeps the project.
type ReplaceRequest struct {
	ID          string
	Name        string
	Description string
	Status      string
	ProjectName string
	Videos      []video.Video
	Files       []video.File
}

// GetAll returns every ticket.
func (s *Service) GetAll(ctx context.Context) ([]*Ticket, error) {
	tickets, err := repository.Collect(s.tickets.GetAll(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	return tickets, nil
}

// GetByID fetches a ticket by id.
func (s *Service) GetByID(ctx context.Context, id string) (*Ticket, error) {
	if id == "" {
		return nil, ErrTicketNotFound
	}
	t, err := s.tickets.GetFirst(ctx, repository.Query{ID: id})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("getting ticket: %w", err)
	}
	return t, nil
}

// GetByName resolves a ticket through its project's references, so
// names only need to be unique within a project.
func (s *Service) GetByName(ctx context.Context, projectName, ticketName string) (*Ticket, error) {
	proj, err := s.projects.GetByName(ctx, projectName)
	if err != nil {
		return nil, err
	}
	ref, ok := proj.FindTicketRef(ticketName)
	if !ok {
		return nil, ErrTicketNotFound
	}
	return s.GetByID(ctx, ref.ID)
}

// ListByProject returns the tickets referenced by a project.
func (s *Service) ListByProject(ctx context.Context, projectName string) ([]*Ticket, error) {
	proj, err := s.projects.GetByName(ctx, projectName)
	if err != nil {
		return nil, err
	}
	tickets := make([]*Ticket, 0, len(proj.Tickets))
	for _, ref := range proj.Tickets {
		t, err := s.GetByID(ctx, ref.ID)
		if errors.Is(err, ErrTicketNotFound) {
			s.logger.Warn("project references missing ticket", "project", proj.Name, "ticket_id", ref.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// Create stores a new open ticket with its uploaded videos and registers
// it with its project. Nothing is written when the project is missing.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Ticket, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	proj, err := s.projects.GetByName(ctx, req.ProjectName)
	if err != nil {
		return nil, err
	}

	videos, err := s.videos.Upload(ctx, req.Files)
	if err != nil {
		s.discardVideos(ctx, videos)
		return nil, fmt.Errorf("uploading videos: %w", err)
	}

	var log eventLog
	for _, v := range videos {
		log.add("Video '%s' uploaded.", v.Title)
	}
	log.add("Ticket created.")

	t := &Ticket{
		Name:        req.Name,
		Description: req.Description,
		ProjectName: proj.Name,
		Status:      StatusOpen,
		Creator:     req.Creator,
		EventLog:    []LogEntry{{Timestamp: s.timestamp(), Event: log.String("")}},
		Videos:      append([]video.Video{}, videos...),
	}

	t, err = s.tickets.Create(ctx, t)
	if err != nil {
		s.discardVideos(ctx, videos)
		return nil, fmt.Errorf("creating ticket: %w", err)
	}

	if err := s.projects.UpsertTicketRef(ctx, proj.Name, t.Ref()); err != nil {
		// Leave no ticket behind that its project does not list.
		if delErr := s.tickets.Delete(ctx, t.ID); delErr != nil {
			s.logger.Error("failed to roll back ticket", "ticket_id", t.ID, "error", delErr)
		}
		s.discardVideos(ctx, videos)
		return nil, fmt.Errorf("attaching ticket to project: %w", err)
	}

	s.logger.Info("ticket created", "ticket_id", t.ID, "project", t.ProjectName, "videos", len(t.Videos))
	s.record(ctx, t, activity.TypeTicketCreated, t.EventLog[0].Event)
	return t, nil
}

// Replace overwrites a ticket, reconciling its videos with the blob store,
// keeping the project references in sync and appending one log entry
// describing the changes.
func (s *Service) Replace(ctx context.Context, req ReplaceRequest) (*Ticket, error) {
	if err := ValidateReplaceInput(req); err != nil {
		return nil, err
	}

	t, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	oldName, oldProject := t.Name, t.ProjectName
	renamed := req.Name != oldName
	moved := req.ProjectName != "" && !repository.SameKey(req.ProjectName, oldProject)

	// Resolve projects before touching any blob.
	newProject := oldProject
	if moved {
		proj, err := s.projects.GetByName(ctx, req.ProjectName)
		if err != nil {
			return nil, err
		}
		newProject = proj.Name
	} else if renamed {
		if _, err := s.projects.GetByName(ctx, oldProject); err != nil {
			return nil, err
		}
	}

	var log eventLog
	var uploaded []video.Video
	refsChanged := false
	success := false
	defer func() {
		if success {
			return
		}
		if refsChanged {
			s.restoreRefs(ctx, project.TicketRef{ID: t.ID, Name: oldName}, oldProject, newProject, moved)
		}
		s.discardVideos(ctx, uploaded)
	}()

	if len(req.Files) > 0 {
		uploaded, err = s.videos.Upload(ctx, req.Files)
		if err != nil {
			return nil, fmt.Errorf("uploading videos: %w", err)
		}
		for _, v := range uploaded {
			log.add("Video '%s' uploaded.", v.Title)
		}
		t.Videos = append(t.Videos, uploaded...)
	} else {
		if err := s.reconcileVideos(ctx, t.Videos, req.Videos, &log); err != nil {
			return nil, err
		}
		t.Videos = append([]video.Video{}, req.Videos...)
	}

	if t.Description != req.Description {
		log.add("Description changed from '%s' to '%s'.", t.Description, req.Description)
		t.Description = req.Description
	}
	if t.Status != req.Status {
		log.add("Status changed from '%s' to '%s'.", t.Status, req.Status)
		t.Status = req.Status
	}
	if renamed {
		log.add("Name changed from '%s' to '%s'.", oldName, req.Name)
		t.Name = req.Name
	}
	if moved {
		log.add("Project changed from '%s' to '%s'.", oldProject, newProject)
		t.ProjectName = newProject
	}

	// Projects are written first and restored if the ticket write fails.
	if moved {
		if err := s.projects.UpsertTicketRef(ctx, newProject, t.Ref()); err != nil {
			return nil, fmt.Errorf("attaching ticket to project: %w", err)
		}
		refsChanged = true
		if err := s.projects.RemoveTicketRef(ctx, oldProject, t.ID); err != nil {
			if !errors.Is(err, project.ErrProjectNotFound) {
				return nil, fmt.Errorf("detaching ticket from project: %w", err)
			}
			s.logger.Warn("previous project of ticket not found", "ticket_id", t.ID, "project", oldProject)
		}
	} else if renamed {
		if err := s.projects.UpsertTicketRef(ctx, oldProject, t.Ref()); err != nil {
			return nil, fmt.Errorf("renaming ticket reference: %w", err)
		}
		refsChanged = true
	}

	t.EventLog = append(t.EventLog, LogEntry{Timestamp: s.timestamp(), Event: log.String("Ticket Updated.")})

	if err := s.tickets.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTicketNotFound
		default:
			return nil, fmt.Errorf("updating ticket: %w", err)
		}
	}

	success = true
	entry := t.EventLog[len(t.EventLog)-1].Event
	s.logger.Info("ticket replaced", "ticket_id", t.ID, "event", entry)
	s.record(ctx, t, activity.TypeTicketReplaced, entry)
	return t, nil
}

// restoreRefs realigns project references with the stored ticket after a
// failed replace wrote them. When the ticket cannot be read, prev is
// assumed to still be current.
func (s *Service) restoreRefs(ctx context.Context, prev project.TicketRef, oldProject, newProject string, moved bool) {
	ref, home := prev, oldProject
	stored, err := s.GetByID(ctx, prev.ID)
	switch {
	case err == nil:
		ref, home = stored.Ref(), stored.ProjectName
	case errors.Is(err, ErrTicketNotFound):
		home = ""
	default:
		s.logger.Warn("failed to reload ticket after failed replace", "ticket_id", prev.ID, "error", err)
	}

	if moved && !repository.SameKey(home, newProject) {
		if err := s.projects.RemoveTicketRef(ctx, newProject, prev.ID); err != nil {
			s.logger.Error("failed to detach ticket after failed replace",
				"ticket_id", prev.ID, "project", newProject, "error", err)
		}
	}
	if home == "" {
		return
	}
	if err := s.projects.UpsertTicketRef(ctx, home, ref); err != nil && !errors.Is(err, project.ErrProjectNotFound) {
		s.logger.Error("failed to restore ticket reference after failed replace",
			"ticket_id", prev.ID, "project", home, "error", err)
	}
}

// reconcileVideos deletes the blobs of videos dropped from the ticket and
// logs note count changes when the set size is unchanged.
func (s *Service) reconcileVideos(ctx context.Context, stored, submitted []video.Video, log *eventLog) error {
	switch {
	case len(submitted) < len(stored):
		keep := make(map[string]bool, len(submitted))
		for _, v := range submitted {
			keep[v.ID] = true
		}
		for _, v := range stored {
			if keep[v.ID] {
				continue
			}
			if err := s.videos.Delete(ctx, v.FileLocation); err != nil {
				return fmt.Errorf("removing video %q: %w", v.Title, err)
			}
			log.add("Video '%s' removed.", v.Title)
		}
	case len(submitted) == len(stored):
		for i := range stored {
			before, after := len(stored[i].Notes), len(submitted[i].Notes)
			if before != after {
				log.add("Number of notes changed from %d to %d for video '%s'.", before, after, submitted[i].Title)
			}
		}
	}
	return nil
}

// Delete removes a ticket, its project reference and its video blobs.
// A missing ticket or project is logged, not reported.
func (s *Service) Delete(ctx context.Context, id string) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			s.logger.Warn("ticket to delete not found", "ticket_id", id)
			return nil
		}
		return err
	}

	if err := s.projects.RemoveTicketRef(ctx, t.ProjectName, t.ID); err != nil {
		if !errors.Is(err, project.ErrProjectNotFound) {
			return fmt.Errorf("detaching ticket from project: %w", err)
		}
		s.logger.Error("project of deleted ticket not found", "ticket_id", t.ID, "project", t.ProjectName)
	}

	s.discardVideos(ctx, t.Videos)

	if err := s.tickets.Delete(ctx, t.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting ticket: %w", err)
	}

	s.logger.Info("ticket deleted", "ticket_id", t.ID, "project", t.ProjectName, "videos", len(t.Videos))
	s.record(ctx, t, activity.TypeTicketDeleted, fmt.Sprintf("Ticket '%s' deleted.", t.Name))
	return nil
}

// PruneVideos deletes blobs no ticket refers to.
func (s *Service) PruneVideos(ctx context.Context) ([]string, error) {
	tickets, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{})
	for _, t := range tickets {
		for _, v := range t.Videos {
			referenced[video.BlobName(v.FileLocation)] = struct{}{}
		}
	}

	deleted, err := s.videos.Prune(ctx, referenced, s.now().Add(-s.pruneGrace))
	if err != nil {
		s.logger.Warn("some orphaned videos could not be deleted", "error", err)
	}
	if len(deleted) > 0 && s.activities != nil {
		s.activities.Record(ctx, activity.EntityTicket, "", "", activity.TypeVideosPruned,
			fmt.Sprintf("%d orphaned videos deleted.", len(deleted)))
	}
	return deleted, err
}

// discardVideos deletes blobs in parallel. Failures are logged; every
// deletion is attempted regardless of the others.
func (s *Service) discardVideos(ctx context.Context, videos []video.Video) {
	if len(videos) == 0 {
		return
	}
	errs := make([]error, len(videos))
	var g errgroup.Group
	g.SetLimit(s.deleteConcurrency)
	for i, v := range videos {
		g.Go(func() error {
			errs[i] = s.videos.Delete(ctx, v.FileLocation)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("failed to delete video blobs", "count", len(videos), "error", err)
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) record(ctx context.Context, t *Ticket, typ activity.ActivityType, summary string) {
	if s.activities != nil {
		s.activities.Record(ctx, activity.EntityTicket, t.ID, t.Name, typ, summary)
	}
}
