package project_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/repository"
	"github.com/rpggio/issuesuite/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func atp(tickets ...project.TicketRef) *project.Project {
	return &project.Project{
		Meta:    repository.Meta{ID: "p1", Revision: 1},
		Name:    "ATP",
		Tickets: tickets,
	}
}

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	svc := project.NewService(repo, nil, nil)

	_, err := svc.Create(ctx, project.CreateRequest{Name: ""})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.Create(ctx, project.CreateRequest{Name: strings.Repeat("p", 71)})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectService_CreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "atp"}).Return(atp(), nil)

	svc := project.NewService(repo, nil, nil)
	_, err := svc.Create(ctx, project.CreateRequest{Name: "atp"})
	require.ErrorIs(t, err, project.ErrProjectExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectService_CreateRecordsActivity(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	recorder := &mocks.ActivityRecorder{}

	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(p *project.Project) bool {
		return p.Name == "ATP" && p.Tickets != nil && len(p.Tickets) == 0
	})).Return(atp(), nil)
	recorder.On("Record", ctx, activity.EntityProject, "p1", "ATP", activity.TypeProjectCreated, "Project 'ATP' created.").Return()

	svc := project.NewService(repo, recorder, nil)
	proj, err := svc.Create(ctx, project.CreateRequest{Name: "ATP"})
	require.NoError(t, err)
	require.Equal(t, "p1", proj.ID)
	recorder.AssertExpectations(t)
}

func TestProjectService_GetByNameNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "BT"}).Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil, nil)
	_, err := svc.GetByName(ctx, "BT")
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = svc.GetByName(ctx, "  ")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_DeleteGuardsTickets(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(project.TicketRef{ID: "t1", Name: "Bug1"}), nil)

	svc := project.NewService(repo, nil, nil)
	err := svc.Delete(ctx, "ATP")
	require.ErrorIs(t, err, project.ErrProjectHasTickets)
	repo.AssertNotCalled(t, "DeleteAtRevision", mock.Anything, mock.Anything)
}

func TestProjectService_DeleteEmptyProject(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil)
	repo.On("DeleteAtRevision", ctx, atp()).Return(nil)

	svc := project.NewService(repo, nil, nil)
	require.NoError(t, svc.Delete(ctx, "ATP"))
	repo.AssertExpectations(t)
}

func TestProjectService_DeleteRechecksAfterConflict(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	filled := atp(project.TicketRef{ID: "t1", Name: "Bug1"})
	filled.Revision = 2
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil).Once()
	repo.On("DeleteAtRevision", ctx, atp()).Return(repository.ErrConflict).Once()
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(filled, nil).Once()

	svc := project.NewService(repo, nil, nil)
	err := svc.Delete(ctx, "ATP")
	require.ErrorIs(t, err, project.ErrProjectHasTickets)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "DeleteAtRevision", 1)
}

func TestProjectService_DeleteRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	renamed := atp()
	renamed.Revision = 2
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil).Once()
	repo.On("DeleteAtRevision", ctx, atp()).Return(repository.ErrConflict).Once()
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(renamed, nil).Once()
	repo.On("DeleteAtRevision", ctx, renamed).Return(nil).Once()

	svc := project.NewService(repo, nil, nil)
	require.NoError(t, svc.Delete(ctx, "ATP"))
	repo.AssertExpectations(t)
}

func TestProjectService_DeleteGivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil)
	repo.On("DeleteAtRevision", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := project.NewService(repo, nil, nil, project.WithMaxRetries(2))
	require.ErrorIs(t, svc.Delete(ctx, "ATP"), repository.ErrConflict)
	repo.AssertNumberOfCalls(t, "DeleteAtRevision", 3)
}

func TestProjectService_DeleteMissing(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil, nil)
	require.ErrorIs(t, svc.Delete(ctx, "ATP"), project.ErrProjectNotFound)
}

func TestProjectService_ReplaceOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(project.TicketRef{ID: "t1", Name: "Bug1"}), nil)
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP2"}).Return(nil, repository.ErrNotFound)
	repo.On("Update", ctx, mock.MatchedBy(func(p *project.Project) bool {
		return p.Name == "ATP2" && len(p.Tickets) == 0 && p.Revision == 1
	})).Return(nil)

	svc := project.NewService(repo, nil, nil)
	proj, err := svc.Replace(ctx, "ATP", project.ReplaceRequest{Name: "ATP2"})
	require.NoError(t, err)
	require.Equal(t, "ATP2", proj.Name)
	repo.AssertExpectations(t)
}

func TestProjectService_ReplaceRejectsTakenName(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "BT"}).Return(&project.Project{Name: "BT"}, nil)

	svc := project.NewService(repo, nil, nil)
	_, err := svc.Replace(ctx, "ATP", project.ReplaceRequest{Name: "BT"})
	require.ErrorIs(t, err, project.ErrProjectExists)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProjectService_ReplaceMissing(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil, nil)
	_, err := svc.Replace(ctx, "ATP", project.ReplaceRequest{Name: "atp"})
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_UpsertTicketRefRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil).Once()
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(project.TicketRef{ID: "t0", Name: "Other"}), nil).Once()
	repo.On("Update", ctx, mock.Anything).Return(repository.ErrConflict).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(p *project.Project) bool {
		return len(p.Tickets) == 2 && p.Tickets[1] == project.TicketRef{ID: "t1", Name: "Bug1"}
	})).Return(nil).Once()

	svc := project.NewService(repo, nil, nil)
	require.NoError(t, svc.UpsertTicketRef(ctx, "ATP", project.TicketRef{ID: "t1", Name: "Bug1"}))
	repo.AssertExpectations(t)
}

func TestProjectService_UpsertTicketRefGivesUp(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil).Once()
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(), nil).Once()
	repo.On("Update", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := project.NewService(repo, nil, nil, project.WithMaxRetries(1))
	err := svc.UpsertTicketRef(ctx, "ATP", project.TicketRef{ID: "t1", Name: "Bug1"})
	require.ErrorIs(t, err, repository.ErrConflict)
	repo.AssertNumberOfCalls(t, "Update", 2)
}

func TestProjectService_UpsertTicketRefSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(atp(project.TicketRef{ID: "t1", Name: "Bug1"}), nil)

	svc := project.NewService(repo, nil, nil)
	require.NoError(t, svc.UpsertTicketRef(ctx, "ATP", project.TicketRef{ID: "t1", Name: "Bug1"}))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProjectService_RemoveTicketRefMissingProject(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.Collection[*project.Project]{}
	repo.On("GetFirst", ctx, repository.Query{Key: "ATP"}).Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil, nil)
	require.ErrorIs(t, svc.RemoveTicketRef(ctx, "ATP", "t1"), project.ErrProjectNotFound)
}

func TestProject_TicketRefs(t *testing.T) {
	p := &project.Project{Name: "ATP"}

	require.True(t, p.UpsertTicketRef(project.TicketRef{ID: "t1", Name: "Bug1"}))
	require.True(t, p.UpsertTicketRef(project.TicketRef{ID: "t2", Name: "Bug2"}))
	require.False(t, p.UpsertTicketRef(project.TicketRef{ID: "t1", Name: "Bug1"}))
	require.True(t, p.UpsertTicketRef(project.TicketRef{ID: "t1", Name: "Bug1-fixed"}))
	require.Len(t, p.Tickets, 2)

	ref, ok := p.FindTicketRef("bug1-FIXED")
	require.True(t, ok)
	require.Equal(t, "t1", ref.ID)

	require.True(t, p.RemoveTicketRef("t1"))
	require.False(t, p.RemoveTicketRef("t1"))
	require.Equal(t, []project.TicketRef{{ID: "t2", Name: "Bug2"}}, p.Tickets)
}
