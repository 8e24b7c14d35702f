package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maxListLimit = 500

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.EntityType == "" || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record logs an activity and only reports failures to the logger.
// Mutations call it after they have succeeded.
func (s *Service) Record(ctx context.Context, entityType EntityType, entityID, entityName string, typ ActivityType, summary string) {
	err := s.LogActivity(ctx, &ActivityEntry{
		EntityType:   entityType,
		EntityID:     entityID,
		EntityName:   entityName,
		ActivityType: typ,
		Summary:      summary,
	})
	if err != nil {
		s.logger.Warn("failed to record activity", "type", typ, "entity_id", entityID, "error", err)
	}
}

// GetRecentActivity lists activity entries with filtering, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.Limit <= 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
