package video

import (
	"context"
	"io"

	"github.com/rpggio/issuesuite/internal/blob"
)

// BlobStore is the blob container videos are kept in.
type BlobStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Upload(ctx context.Context, name string, r io.Reader) (blob.Object, error)
	List(ctx context.Context) ([]blob.Descriptor, error)
	Delete(ctx context.Context, name string) error
}
