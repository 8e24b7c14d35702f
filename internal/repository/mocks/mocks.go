package mocks

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/rpggio/issuesuite/internal/blob"
	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Collection is a mock for repository.Collection.
type Collection[E repository.Entity] struct {
	mock.Mock
}

func (m *Collection[E]) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Collection[E]) Create(ctx context.Context, doc E) (E, error) {
	args := m.Called(ctx, doc)
	if out, ok := args.Get(0).(E); ok {
		return out, args.Error(1)
	}
	var zero E
	return zero, args.Error(1)
}

func (m *Collection[E]) GetAll(ctx context.Context) iter.Seq2[E, error] {
	args := m.Called(ctx)
	return seq[E](args)
}

func (m *Collection[E]) GetBy(ctx context.Context, q repository.Query, limit int) iter.Seq2[E, error] {
	args := m.Called(ctx, q, limit)
	return seq[E](args)
}

func (m *Collection[E]) GetFirst(ctx context.Context, q repository.Query) (E, error) {
	args := m.Called(ctx, q)
	if out, ok := args.Get(0).(E); ok {
		return out, args.Error(1)
	}
	var zero E
	return zero, args.Error(1)
}

func (m *Collection[E]) Update(ctx context.Context, doc E) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *Collection[E]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Collection[E]) DeleteAtRevision(ctx context.Context, doc E) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// seq turns mocked ([]E, error) return values into an iterator.
func seq[E any](args mock.Arguments) iter.Seq2[E, error] {
	docs, _ := args.Get(0).([]E)
	err := args.Error(1)
	return func(yield func(E, error) bool) {
		for _, d := range docs {
			if !yield(d, nil) {
				return
			}
		}
		if err != nil {
			var zero E
			yield(zero, err)
		}
	}
}

// BlobStore is a mock for video.BlobStore.
type BlobStore struct {
	mock.Mock
}

func (m *BlobStore) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *BlobStore) Upload(ctx context.Context, name string, r io.Reader) (blob.Object, error) {
	args := m.Called(ctx, name, r)
	obj, _ := args.Get(0).(blob.Object)
	return obj, args.Error(1)
}

func (m *BlobStore) List(ctx context.Context) ([]blob.Descriptor, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]blob.Descriptor); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BlobStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRecorder is a mock for the recorder the domain services accept.
type ActivityRecorder struct {
	mock.Mock
}

func (m *ActivityRecorder) Record(ctx context.Context, entityType activity.EntityType, entityID, entityName string, typ activity.ActivityType, summary string) {
	m.Called(ctx, entityType, entityID, entityName, typ, summary)
}

// ProjectDirectory is a mock for ticket.ProjectDirectory.
type ProjectDirectory struct {
	mock.Mock
}

func (m *ProjectDirectory) GetByName(ctx context.Context, name string) (*project.Project, error) {
	args := m.Called(ctx, name)
	if p, ok := args.Get(0).(*project.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectDirectory) UpsertTicketRef(ctx context.Context, projectName string, ref project.TicketRef) error {
	args := m.Called(ctx, projectName, ref)
	return args.Error(0)
}

func (m *ProjectDirectory) RemoveTicketRef(ctx context.Context, projectName, ticketID string) error {
	args := m.Called(ctx, projectName, ticketID)
	return args.Error(0)
}

// VideoManager is a mock for ticket.VideoManager.
type VideoManager struct {
	mock.Mock
}

func (m *VideoManager) Upload(ctx context.Context, files []video.File) ([]video.Video, error) {
	args := m.Called(ctx, files)
	videos, _ := args.Get(0).([]video.Video)
	return videos, args.Error(1)
}

func (m *VideoManager) Delete(ctx context.Context, location string) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *VideoManager) Prune(ctx context.Context, referenced map[string]struct{}, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, referenced, cutoff)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}
