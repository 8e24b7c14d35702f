package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/issuesuite/internal/repository"
)

// Collection implements repository.Collection over the documents table.
// Documents are stored as JSON; id and revision live in their own columns.
type Collection[T any, PT interface {
	*T
	repository.Entity
}] struct {
	db     *DB
	name   string
	logger *slog.Logger
}

// NewCollection creates a collection. An empty name falls back to
// repository.CollectionName for T.
func NewCollection[T any, PT interface {
	*T
	repository.Entity
}](db *DB, name string, logger *slog.Logger) *Collection[T, PT] {
	if name == "" {
		name = repository.CollectionName[T]()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collection[T, PT]{db: db, name: name, logger: logger.With("collection", name)}
}

// Name returns the collection name.
func (c *Collection[T, PT]) Name() string {
	return c.name
}

// Create inserts doc, assigning an id when it has none.
func (c *Collection[T, PT]) Create(ctx context.Context, doc PT) (PT, error) {
	if doc.GetID() == "" {
		doc.SetID(uuid.NewString())
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, c.wrap("create", doc.GetID(), err)
	}

	now := time.Now().UTC()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, lookup_key, revision, body, created_at, modified_at)
		VALUES (?, ?, ?, 1, ?, ?, ?)
	`, c.name, doc.GetID(), repository.NormalizeKey(doc.LookupKey()), string(body), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, c.wrap("create", doc.GetID(), err)
	}
	doc.SetRevision(1)

	c.logger.Debug("document created", "id", doc.GetID())
	return doc, nil
}

// GetAll yields every document in insertion order.
func (c *Collection[T, PT]) GetAll(ctx context.Context) iter.Seq2[PT, error] {
	return c.GetBy(ctx, repository.Query{}, 0)
}

// GetBy yields documents matching q, at most limit when limit > 0.
func (c *Collection[T, PT]) GetBy(ctx context.Context, q repository.Query, limit int) iter.Seq2[PT, error] {
	query := `SELECT id, revision, body FROM documents WHERE collection = ?`
	args := []any{c.name}
	if q.ID != "" {
		query += " AND id = ?"
		args = append(args, q.ID)
	}
	if q.Key != "" {
		query += " AND lookup_key = ?"
		args = append(args, repository.NormalizeKey(q.Key))
	}
	query += " ORDER BY seq"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return func(yield func(PT, error) bool) {
		rows, err := c.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, c.wrap("query", q.ID, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id, body string
			var rev int64
			if err := rows.Scan(&id, &rev, &body); err != nil {
				yield(nil, c.wrap("scan", q.ID, err))
				return
			}
			doc := PT(new(T))
			if err := json.Unmarshal([]byte(body), doc); err != nil {
				yield(nil, c.wrap("decode", id, err))
				return
			}
			doc.SetID(id)
			doc.SetRevision(rev)
			if !yield(doc, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, c.wrap("query", q.ID, err))
		}
	}
}

// GetFirst returns the first document matching q.
func (c *Collection[T, PT]) GetFirst(ctx context.Context, q repository.Query) (PT, error) {
	for doc, err := range c.GetBy(ctx, q, 1) {
		return doc, err
	}
	return nil, repository.ErrNotFound
}

// Update stores doc if the stored revision equals doc's revision, then
// advances doc's revision.
func (c *Collection[T, PT]) Update(ctx context.Context, doc PT) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return c.wrap("update", doc.GetID(), err)
	}

	result, err := c.db.ExecContext(ctx, `
		UPDATE documents
		SET body = ?, lookup_key = ?, revision = revision + 1, modified_at = ?
		WHERE collection = ? AND id = ? AND revision = ?
	`, string(body), repository.NormalizeKey(doc.LookupKey()), time.Now().UTC(), c.name, doc.GetID(), doc.GetRevision())
	if err != nil {
		return c.wrap("update", doc.GetID(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return c.wrap("update", doc.GetID(), err)
	}
	if rows == 0 {
		exists, err := c.exists(ctx, doc.GetID())
		if err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	doc.SetRevision(doc.GetRevision() + 1)
	return nil
}

// Delete removes the document with the given id.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return c.wrap("delete", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return c.wrap("delete", id, err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	c.logger.Debug("document deleted", "id", id)
	return nil
}

// DeleteAtRevision removes doc if the stored revision equals doc's.
func (c *Collection[T, PT]) DeleteAtRevision(ctx context.Context, doc PT) error {
	result, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ? AND revision = ?`,
		c.name, doc.GetID(), doc.GetRevision(),
	)
	if err != nil {
		return c.wrap("delete", doc.GetID(), err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return c.wrap("delete", doc.GetID(), err)
	}
	if rows == 0 {
		exists, err := c.exists(ctx, doc.GetID())
		if err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	c.logger.Debug("document deleted", "id", doc.GetID(), "revision", doc.GetRevision())
	return nil
}

func (c *Collection[T, PT]) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE collection = ? AND id = ?)`,
		c.name, id,
	).Scan(&exists)
	if err != nil {
		return false, c.wrap("exists", id, err)
	}
	return exists, nil
}

func (c *Collection[T, PT]) wrap(op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return &repository.StoreError{Op: op, Collection: c.name, ID: id, Err: err}
}
