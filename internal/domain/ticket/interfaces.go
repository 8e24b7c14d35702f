package ticket

import (
	"context"
	"time"

	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/video"
)

// ProjectDirectory resolves projects and maintains their ticket references.
type ProjectDirectory interface {
	GetByName(ctx context.Context, name string) (*project.Project, error)
	UpsertTicketRef(ctx context.Context, projectName string, ref project.TicketRef) error
	RemoveTicketRef(ctx context.Context, projectName, ticketID string) error
}

// VideoManager stores and removes video blobs.
type VideoManager interface {
	Upload(ctx context.Context, files []video.File) ([]video.Video, error)
	Delete(ctx context.Context, location string) error
	Prune(ctx context.Context, referenced map[string]struct{}, cutoff time.Time) ([]string, error)
}

// ActivityRecorder records audit entries for successful mutations.
type ActivityRecorder interface {
	Record(ctx context.Context, entityType activity.EntityType, entityID, entityName string, typ activity.ActivityType, summary string)
}
