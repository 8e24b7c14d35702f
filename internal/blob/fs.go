package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	tmpDir          = ".tmp"
	defaultPageSize = 256
)

// FSConfig configures a filesystem blob container.
type FSConfig struct {
	// Root holds one directory per container plus a scratch directory.
	Root      string
	Container string
	// BaseURL is the public URL prefix the container is served under.
	BaseURL  string
	PageSize int
}

// FSStore is a blob container backed by a local directory.
type FSStore struct {
	dir      string
	tmp      string
	baseURL  string
	pageSize int
	logger   *slog.Logger
}

// NewFSStore creates the container directory if needed.
func NewFSStore(cfg FSConfig, logger *slog.Logger) (*FSStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Container == "" || strings.ContainsAny(cfg.Container, `/\`) || cfg.Container == tmpDir {
		return nil, fmt.Errorf("invalid container name %q", cfg.Container)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	s := &FSStore{
		dir:      filepath.Join(cfg.Root, cfg.Container),
		tmp:      filepath.Join(cfg.Root, tmpDir),
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		pageSize: pageSize,
		logger:   logger.With("container", cfg.Container),
	}
	for _, dir := range []string{s.dir, s.tmp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating blob directory: %w", err)
		}
	}
	return s, nil
}

// Dir returns the directory holding the container's blobs.
func (s *FSStore) Dir() string {
	return s.dir
}

// Location returns the public URL of a blob.
func (s *FSStore) Location(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

// Exists reports whether a blob with the given name is stored.
func (s *FSStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, &Error{Op: "exists", Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return false, &Error{Op: "exists", Name: name, Err: err}
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &Error{Op: "exists", Name: name, Err: err}
	}
}

// Upload streams r into a new blob. It never replaces an existing blob;
// a taken name yields ErrExists. The blob becomes visible only once
// completely written.
func (s *FSStore) Upload(ctx context.Context, name string, r io.Reader) (Object, error) {
	if err := validName(name); err != nil {
		return Object{}, &Error{Op: "upload", Name: name, Err: err}
	}

	tmpFile, err := os.CreateTemp(s.tmp, "upload-*")
	if err != nil {
		return Object{}, &Error{Op: "upload", Name: name, Err: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	hasher := blake3.New()
	size, err := io.Copy(io.MultiWriter(tmpFile, hasher), &ctxReader{ctx: ctx, r: r})
	if err != nil {
		tmpFile.Close()
		return Object{}, &Error{Op: "upload", Name: name, Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		return Object{}, &Error{Op: "upload", Name: name, Err: err}
	}

	// Link fails when the target exists, unlike rename.
	if err := os.Link(tmpPath, filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Object{}, &Error{Op: "upload", Name: name, Err: ErrExists}
		}
		return Object{}, &Error{Op: "upload", Name: name, Err: err}
	}

	s.logger.Debug("blob uploaded", "name", name, "size", size)
	return Object{
		Name:     name,
		Location: s.Location(name),
		Size:     size,
		Digest:   hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// List returns every blob in the container, reading the directory in pages.
func (s *FSStore) List(ctx context.Context) ([]Descriptor, error) {
	dir, err := os.Open(s.dir)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	defer dir.Close()

	var out []Descriptor
	for {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: "list", Err: err}
		}
		entries, err := dir.ReadDir(s.pageSize)
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, &Error{Op: "list", Name: entry.Name(), Err: err}
			}
			out = append(out, Descriptor{
				Name:     entry.Name(),
				Location: s.Location(entry.Name()),
				Size:     info.Size(),
				ModTime:  info.ModTime().UTC(),
			})
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &Error{Op: "list", Err: err}
		}
	}
}

// Delete removes a blob. Deleting a missing blob succeeds.
func (s *FSStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return &Error{Op: "delete", Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Op: "delete", Name: name, Err: err}
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &Error{Op: "delete", Name: name, Err: err}
	}
	s.logger.Debug("blob deleted", "name", name, "existed", err == nil)
	return nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return ErrInvalidName
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
