package project

import (
	"context"

	"github.com/rpggio/issuesuite/internal/domain/activity"
)

// ActivityRecorder records audit entries for successful mutations.
type ActivityRecorder interface {
	Record(ctx context.Context, entityType activity.EntityType, entityID, entityName string, typ activity.ActivityType, summary string)
}
