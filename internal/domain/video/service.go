package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/issuesuite/internal/blob"
)

// Service manages the lifecycle of video blobs.
type Service struct {
	blobs  BlobStore
	newID  func() string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator replaces the random id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a new video service.
func NewService(blobs BlobStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{blobs: blobs, newID: uuid.NewString, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores each file under a fresh collision-free name and returns
// the resulting videos in input order. Blobs already written stay in
// place when a later file fails.
func (s *Service) Upload(ctx context.Context, files []File) ([]Video, error) {
	videos := make([]Video, 0, len(files))
	for _, f := range files {
		v, err := s.upload(ctx, f)
		if err != nil {
			return videos, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (s *Service) upload(ctx context.Context, f File) (Video, error) {
	if f.Content == nil || strings.TrimSpace(f.Name) == "" {
		return Video{}, fmt.Errorf("%w: file name and content are required", ErrInvalidInput)
	}
	suffix := SanitizeName(f.Name) + Extension(f.ContentType)

	content, release, err := rewindable(f.Content)
	if err != nil {
		return Video{}, fmt.Errorf("buffering video %q: %w", f.Name, err)
	}
	defer release()

	for {
		if err := ctx.Err(); err != nil {
			return Video{}, err
		}
		id := s.newID()
		name := id + "." + suffix

		exists, err := s.blobs.Exists(ctx, name)
		if err != nil {
			return Video{}, fmt.Errorf("checking blob %s: %w", name, err)
		}
		if exists {
			s.logger.Debug("video name taken, retrying", "name", name)
			continue
		}

		if err := content.rewind(); err != nil {
			return Video{}, fmt.Errorf("rewinding video %q: %w", f.Name, err)
		}
		obj, err := s.blobs.Upload(ctx, name, content)
		if errors.Is(err, blob.ErrExists) {
			// Lost a race for the name. The attempt consumed the content,
			// so the next one starts from the rewound offset.
			s.logger.Debug("video name claimed during upload, retrying", "name", name)
			continue
		}
		if err != nil {
			return Video{}, fmt.Errorf("uploading video %q: %w", f.Name, err)
		}

		s.logger.Info("video uploaded", "name", name, "size", obj.Size)
		return Video{
			ID:           id,
			Title:        f.Name,
			FileLocation: obj.Location,
			Thumbnail:    f.Thumbnail,
			Size:         obj.Size,
			Checksum:     obj.Digest,
		}, nil
	}
}

// replayable is an upload body that can be read again from the start.
type replayable struct {
	io.ReadSeeker
	start int64
}

func (r *replayable) rewind() error {
	_, err := r.Seek(r.start, io.SeekStart)
	return err
}

// rewindable returns content as a replayable body. Seekable readers are
// rewound in place; anything else is spooled once to a temporary file.
func rewindable(content io.Reader) (*replayable, func(), error) {
	if rs, ok := content.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err == nil {
			return &replayable{ReadSeeker: rs, start: start}, func() {}, nil
		}
	}

	tmp, err := os.CreateTemp("", "video-upload-*")
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, content); err != nil {
		release()
		return nil, nil, err
	}
	return &replayable{ReadSeeker: tmp}, release, nil
}

// Delete removes the blob behind a file location. Missing blobs are ignored.
func (s *Service) Delete(ctx context.Context, location string) error {
	name := BlobName(location)
	if err := s.blobs.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting video %s: %w", name, err)
	}
	return nil
}

// List returns every stored video blob.
func (s *Service) List(ctx context.Context) ([]blob.Descriptor, error) {
	list, err := s.blobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return list, nil
}

// Prune deletes every blob last modified before cutoff whose name is not in
// referenced, and returns the deleted names. Newer blobs may belong to an
// upload whose ticket is not stored yet.
func (s *Service) Prune(ctx context.Context, referenced map[string]struct{}, cutoff time.Time) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var deleted []string
	var errs []error
	for _, d := range list {
		if _, ok := referenced[d.Name]; ok || d.ModTime.After(cutoff) {
			continue
		}
		if err := s.blobs.Delete(ctx, d.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, d.Name)
	}
	if len(deleted) > 0 {
		s.logger.Info("pruned orphaned videos", "count", len(deleted))
	}
	return deleted, errors.Join(errs...)
}

// BlobName maps a file location to its blob name: one trailing slash is
// dropped and the last path segment is taken.
func BlobName(location string) string {
	location = strings.TrimSuffix(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		location = location[i+1:]
	}
	if name, err := url.PathUnescape(location); err == nil {
		return name
	}
	return location
}

// Extension derives a file extension from a content type, e.g.
// "video/mp4" becomes ".mp4".
func Extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	if i := strings.LastIndex(mediaType, "/"); i >= 0 {
		mediaType = mediaType[i+1:]
	}
	if mediaType == "" {
		return ""
	}
	return "." + mediaType
}

var nameReplacer = strings.NewReplacer(" ", "-", "/", "-", `\`, "-")

// SanitizeName replaces spaces and path separators so the name is usable
// as a single URL path segment.
func SanitizeName(name string) string {
	return nameReplacer.Replace(name)
}
