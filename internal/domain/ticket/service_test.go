package ticket_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/issuesuite/internal/blob"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository"
	"github.com/rpggio/issuesuite/internal/sqlite"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type harness struct {
	projectDocs *sqlite.Collection[project.Project, *project.Project]
	ticketDocs  *sqlite.Collection[ticket.Ticket, *ticket.Ticket]
	blobs       *blob.FSStore
	projects    *project.Service
	tickets     *ticket.Service
}

func newHarness(t *testing.T, opts ...ticket.Option) *harness {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	blobs, err := blob.NewFSStore(blob.FSConfig{
		Root:      t.TempDir(),
		Container: "videos",
		BaseURL:   "http://localhost/videos",
	}, nil)
	require.NoError(t, err)

	h := &harness{
		projectDocs: sqlite.NewCollection[project.Project](db, "", nil),
		ticketDocs:  sqlite.NewCollection[ticket.Ticket](db, "", nil),
		blobs:       blobs,
	}
	h.projects = project.NewService(h.projectDocs, nil, nil, project.WithMaxRetries(50))
	opts = append([]ticket.Option{ticket.WithClock(func() time.Time { return fixedNow })}, opts...)
	h.tickets = ticket.NewService(h.ticketDocs, h.projects, video.NewService(blobs, nil), nil, nil, opts...)
	return h
}

func (h *harness) project(t *testing.T, name string) *project.Project {
	t.Helper()
	proj, err := h.projects.GetByName(context.Background(), name)
	require.NoError(t, err)
	return proj
}

func (h *harness) blobNames(t *testing.T) []string {
	t.Helper()
	list, err := h.blobs.List(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, d := range list {
		names = append(names, d.Name)
	}
	return names
}

func mp4(name string) video.File {
	return video.File{Name: name, ContentType: "video/mp4", Thumbnail: "thumb-" + name, Content: strings.NewReader("data-" + name)}
}

func lastEvent(t *ticket.Ticket) string {
	return t.EventLog[len(t.EventLog)-1].Event
}

func replaceFrom(t *ticket.Ticket) ticket.ReplaceRequest {
	return ticket.ReplaceRequest{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		Videos:      append([]video.Video{}, t.Videos...),
	}
}

func TestTicketService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)

	created, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name:        "Bug1",
		ProjectName: "ATP",
		Creator:     "alice@example.com",
		Files:       []video.File{mp4("a.mp4"), mp4("b.mp4")},
	})
	require.NoError(t, err)
	require.Equal(t, ticket.StatusOpen, created.Status)
	require.Len(t, created.Videos, 2)
	require.Equal(t, "thumb-b.mp4", created.Videos[1].Thumbnail)
	require.NotEmpty(t, created.Videos[0].Checksum)
	require.Equal(t, []ticket.LogEntry{{
		Timestamp: fixedNow,
		Event:     "Video 'a.mp4' uploaded. Video 'b.mp4' uploaded. Ticket created.",
	}}, created.EventLog)
	require.Len(t, h.blobNames(t), 2)
	require.Equal(t, []project.TicketRef{{ID: created.ID, Name: "Bug1"}}, h.project(t, "ATP").Tickets)

	req := replaceFrom(created)
	req.Name = "Bug1-fixed"
	renamed, err := h.tickets.Replace(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "Name changed from 'Bug1' to 'Bug1-fixed'.", lastEvent(renamed))
	require.Len(t, renamed.EventLog, 2)
	require.Equal(t, []project.TicketRef{{ID: created.ID, Name: "Bug1-fixed"}}, h.project(t, "ATP").Tickets)

	byName, err := h.tickets.GetByName(ctx, "atp", "BUG1-FIXED")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)

	require.NoError(t, h.tickets.Delete(ctx, created.ID))
	require.Empty(t, h.project(t, "ATP").Tickets)
	require.Empty(t, h.blobNames(t))
	_, err = h.tickets.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)

	require.NoError(t, h.projects.Delete(ctx, "ATP"))
}

func TestTicketService_CreateRequiresProject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name:        "Bug1",
		ProjectName: "Nope",
		Files:       []video.File{mp4("a.mp4")},
	})
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	all, err := h.tickets.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	require.Empty(t, h.blobNames(t))
}

func TestTicketService_CreateValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.tickets.Create(context.Background(), ticket.CreateRequest{Name: "", ProjectName: "ATP"})
	require.ErrorIs(t, err, ticket.ErrInvalidInput)

	_, err = h.tickets.Create(context.Background(), ticket.CreateRequest{Name: "x", ProjectName: "ATP", Description: strings.Repeat("d", 501)})
	require.ErrorIs(t, err, ticket.ErrInvalidInput)
}

func TestTicketService_ReplaceRemovesDroppedVideos(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name: "Bug1", ProjectName: "ATP", Files: []video.File{mp4("a.mp4"), mp4("b.mp4")},
	})
	require.NoError(t, err)

	req := replaceFrom(created)
	req.Videos = req.Videos[1:]
	updated, err := h.tickets.Replace(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "Video 'a.mp4' removed.", lastEvent(updated))
	require.Len(t, updated.Videos, 1)

	names := h.blobNames(t)
	require.Len(t, names, 1)
	require.Equal(t, video.BlobName(updated.Videos[0].FileLocation), names[0])
}

func TestTicketService_ReplaceLogsNoteChanges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name: "Bug1", ProjectName: "ATP", Files: []video.File{mp4("a.mp4")},
	})
	require.NoError(t, err)

	req := replaceFrom(created)
	req.Videos[0].Notes = []video.Note{{Time: 1.5, Text: "glitch"}, {Time: 3, Text: "crash"}}
	req.Description = "Crashes on load"
	req.Status = "closed"
	updated, err := h.tickets.Replace(ctx, req)
	require.NoError(t, err)
	require.Equal(t,
		"Number of notes changed from 0 to 2 for video 'a.mp4'. "+
			"Description changed from '' to 'Crashes on load'. "+
			"Status changed from 'open' to 'closed'.",
		lastEvent(updated))
	require.Len(t, updated.Videos[0].Notes, 2)
	require.Len(t, h.blobNames(t), 1)
}

func TestTicketService_ReplaceWithoutChanges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{Name: "Bug1", ProjectName: "ATP"})
	require.NoError(t, err)

	updated, err := h.tickets.Replace(ctx, replaceFrom(created))
	require.NoError(t, err)
	require.Equal(t, "Ticket Updated.", lastEvent(updated))
	require.Len(t, updated.EventLog, 2)
}

func TestTicketService_ReplaceAppendsUploads(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name: "Bug1", ProjectName: "ATP", Files: []video.File{mp4("a.mp4")},
	})
	require.NoError(t, err)

	req := replaceFrom(created)
	req.Videos = nil
	req.Files = []video.File{mp4("c.mp4")}
	updated, err := h.tickets.Replace(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "Video 'c.mp4' uploaded.", lastEvent(updated))
	require.Len(t, updated.Videos, 2)
	require.Equal(t, "a.mp4", updated.Videos[0].Title)
	require.Len(t, h.blobNames(t), 2)
}

func TestTicketService_ReplaceMissingTicket(t *testing.T) {
	h := newHarness(t)
	_, err := h.tickets.Replace(context.Background(), ticket.ReplaceRequest{ID: "nope", Name: "x", Status: "open"})
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)
}

func TestTicketService_RenameWithMissingProjectHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	proj, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name: "Bug1", ProjectName: "ATP", Files: []video.File{mp4("a.mp4")},
	})
	require.NoError(t, err)
	require.NoError(t, h.projectDocs.Delete(ctx, proj.ID))

	req := replaceFrom(created)
	req.Name = "Bug2"
	req.Videos = nil
	_, err = h.tickets.Replace(ctx, req)
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	require.Len(t, h.blobNames(t), 1)
	stored, err := h.tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Bug1", stored.Name)
	require.Len(t, stored.EventLog, 1)
}

func TestTicketService_MoveBetweenProjects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, name := range []string{"ATP", "BT"} {
		_, err := h.projects.Create(ctx, project.CreateRequest{Name: name})
		require.NoError(t, err)
	}
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{Name: "Bug1", ProjectName: "ATP"})
	require.NoError(t, err)

	req := replaceFrom(created)
	req.ProjectName = "bt"
	moved, err := h.tickets.Replace(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "BT", moved.ProjectName)
	require.Equal(t, "Project changed from 'ATP' to 'BT'.", lastEvent(moved))
	require.Empty(t, h.project(t, "ATP").Tickets)
	require.Equal(t, []project.TicketRef{{ID: created.ID, Name: "Bug1"}}, h.project(t, "BT").Tickets)

	req = replaceFrom(moved)
	req.ProjectName = "Nope"
	_, err = h.tickets.Replace(ctx, req)
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

// interleavedTickets runs a competing write just before the first update.
type interleavedTickets struct {
	repository.Collection[*ticket.Ticket]
	once    sync.Once
	compete func()
}

func (c *interleavedTickets) Update(ctx context.Context, doc *ticket.Ticket) error {
	c.once.Do(c.compete)
	return c.Collection.Update(ctx, doc)
}

func TestTicketService_ReplaceConflictLeavesRefsAsStored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, name := range []string{"ATP", "BT"} {
		_, err := h.projects.Create(ctx, project.CreateRequest{Name: name})
		require.NoError(t, err)
	}
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{Name: "Bug1", ProjectName: "ATP"})
	require.NoError(t, err)

	newService := func() *ticket.Service {
		docs := &interleavedTickets{Collection: h.ticketDocs}
		docs.compete = func() {
			current, err := h.ticketDocs.GetFirst(ctx, repository.Query{ID: created.ID})
			require.NoError(t, err)
			current.Status = "closed"
			require.NoError(t, h.ticketDocs.Update(ctx, current))
		}
		return ticket.NewService(docs, h.projects, video.NewService(h.blobs, nil), nil, nil)
	}

	req := replaceFrom(created)
	req.Name = "Bug1-fixed"
	_, err = newService().Replace(ctx, req)
	require.ErrorIs(t, err, ticket.ErrConflict)

	stored, err := h.tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Bug1", stored.Name)
	require.Equal(t, []project.TicketRef{{ID: created.ID, Name: "Bug1"}}, h.project(t, "ATP").Tickets)

	req = replaceFrom(stored)
	req.ProjectName = "BT"
	_, err = newService().Replace(ctx, req)
	require.ErrorIs(t, err, ticket.ErrConflict)
	require.Equal(t, []project.TicketRef{{ID: created.ID, Name: "Bug1"}}, h.project(t, "ATP").Tickets)
	require.Empty(t, h.project(t, "BT").Tickets)
}

func TestTicketService_DeleteToleratesMissingProject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	proj, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	created, err := h.tickets.Create(ctx, ticket.CreateRequest{
		Name: "Bug1", ProjectName: "ATP", Files: []video.File{mp4("a.mp4")},
	})
	require.NoError(t, err)
	require.NoError(t, h.projectDocs.Delete(ctx, proj.ID))

	require.NoError(t, h.tickets.Delete(ctx, created.ID))
	_, err = h.tickets.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)
	require.Empty(t, h.blobNames(t))
}

func TestTicketService_DeleteMissingTicket(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tickets.Delete(context.Background(), "nope"))
}

func TestTicketService_ConcurrentCreatesKeepAllRefs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.tickets.Create(ctx, ticket.CreateRequest{
				Name:        fmt.Sprintf("Bug%d", i),
				ProjectName: "ATP",
			})
		}()
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))

	require.Len(t, h.project(t, "ATP").Tickets, n)
	listed, err := h.tickets.ListByProject(ctx, "atp")
	require.NoError(t, err)
	require.Len(t, listed, n)
}

func TestTicketService_PruneVideos(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ticket.WithPruneGrace(0), ticket.WithClock(func() time.Time {
		return time.Now().Add(time.Minute)
	}))
	_, err := h.projects.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	_, err = h.tickets.Create(ctx, ticket.CreateRequest{
		Name: "Bug1", ProjectName: "ATP", Files: []video.File{mp4("a.mp4")},
	})
	require.NoError(t, err)
	_, err = h.blobs.Upload(ctx, "orphan.mp4", strings.NewReader("x"))
	require.NoError(t, err)

	deleted, err := h.tickets.PruneVideos(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"orphan.mp4"}, deleted)
	require.Len(t, h.blobNames(t), 1)
}
