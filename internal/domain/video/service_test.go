package video_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/issuesuite/internal/blob"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func TestVideoService_UploadAvoidsCollisions(t *testing.T) {
	ctx := context.Background()
	blobs := &mocks.BlobStore{}
	content := strings.NewReader("frames")

	mock.InOrder(
		blobs.On("Exists", ctx, "id1.my-clip.mp4.mp4").Return(true, nil).Once(),
		blobs.On("Exists", ctx, "id2.my-clip.mp4.mp4").Return(false, nil).Once(),
		blobs.On("Upload", ctx, "id2.my-clip.mp4.mp4", mock.Anything).Return(blob.Object{
			Name:     "id2.my-clip.mp4.mp4",
			Location: "http://blobs/videos/id2.my-clip.mp4.mp4",
			Size:     6,
			Digest:   "abc",
		}, nil).Once(),
	)

	svc := video.NewService(blobs, nil, video.WithIDGenerator(sequence("id1", "id2")))
	videos, err := svc.Upload(ctx, []video.File{{
		Name:        "my clip.mp4",
		ContentType: "video/mp4",
		Thumbnail:   "thumb-1",
		Content:     content,
	}})
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.Equal(t, video.Video{
		ID:           "id2",
		Title:        "my clip.mp4",
		FileLocation: "http://blobs/videos/id2.my-clip.mp4.mp4",
		Thumbnail:    "thumb-1",
		Size:         6,
		Checksum:     "abc",
	}, videos[0])

	blobs.AssertExpectations(t)
	blobs.AssertNotCalled(t, "Upload", ctx, "id1.my-clip.mp4.mp4", mock.Anything)
}

func TestVideoService_UploadRetriesWhenNameTakenDuringUpload(t *testing.T) {
	tests := []struct {
		name    string
		content io.Reader
	}{
		{name: "seekable", content: strings.NewReader("REAL VIDEO BYTES")},
		{name: "stream", content: struct{ io.Reader }{strings.NewReader("REAL VIDEO BYTES")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			blobs := &mocks.BlobStore{}
			var received []string
			drain := func(args mock.Arguments) {
				data, err := io.ReadAll(args.Get(2).(io.Reader))
				require.NoError(t, err)
				received = append(received, string(data))
			}

			blobs.On("Exists", ctx, mock.Anything).Return(false, nil)
			blobs.On("Upload", ctx, "a.x.webm", mock.Anything).Run(drain).
				Return(blob.Object{}, &blob.Error{Op: "upload", Name: "a.x.webm", Err: blob.ErrExists}).Once()
			blobs.On("Upload", ctx, "b.x.webm", mock.Anything).Run(drain).
				Return(blob.Object{Name: "b.x.webm", Location: "loc/b.x.webm"}, nil).Once()

			svc := video.NewService(blobs, nil, video.WithIDGenerator(sequence("a", "b")))
			videos, err := svc.Upload(ctx, []video.File{{Name: "x", ContentType: "video/webm", Content: tt.content}})
			require.NoError(t, err)
			require.Equal(t, "b", videos[0].ID)
			require.Equal(t, []string{"REAL VIDEO BYTES", "REAL VIDEO BYTES"}, received)
			blobs.AssertNumberOfCalls(t, "Exists", 2)
		})
	}
}

// racingStore hides existing blobs from Exists so every upload contends on
// the final link.
type racingStore struct {
	*blob.FSStore
}

func (racingStore) Exists(context.Context, string) (bool, error) { return false, nil }

func TestVideoService_UploadAfterLostRaceStoresContent(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewFSStore(blob.FSConfig{Root: t.TempDir(), Container: "videos", BaseURL: "http://localhost/videos"}, nil)
	require.NoError(t, err)
	_, err = store.Upload(ctx, "a.clip.mp4", strings.NewReader("older upload"))
	require.NoError(t, err)

	svc := video.NewService(racingStore{store}, nil, video.WithIDGenerator(sequence("a", "b")))
	videos, err := svc.Upload(ctx, []video.File{{
		Name:        "clip",
		ContentType: "video/mp4",
		Content:     struct{ io.Reader }{strings.NewReader("REAL VIDEO BYTES")},
	}})
	require.NoError(t, err)
	require.Equal(t, "b", videos[0].ID)
	require.EqualValues(t, len("REAL VIDEO BYTES"), videos[0].Size)

	data, err := os.ReadFile(filepath.Join(store.Dir(), "b.clip.mp4"))
	require.NoError(t, err)
	require.Equal(t, "REAL VIDEO BYTES", string(data))

	data, err = os.ReadFile(filepath.Join(store.Dir(), "a.clip.mp4"))
	require.NoError(t, err)
	require.Equal(t, "older upload", string(data))
}

func TestVideoService_UploadKeepsOrder(t *testing.T) {
	ctx := context.Background()
	blobs := &mocks.BlobStore{}
	blobs.On("Exists", ctx, mock.Anything).Return(false, nil)
	blobs.On("Upload", ctx, mock.Anything, mock.Anything).Return(blob.Object{Location: "loc"}, nil)

	svc := video.NewService(blobs, nil, video.WithIDGenerator(sequence("1", "2")))
	videos, err := svc.Upload(ctx, []video.File{
		{Name: "first", ContentType: "video/mp4", Content: strings.NewReader("a")},
		{Name: "second", ContentType: "video/mp4", Content: strings.NewReader("b")},
	})
	require.NoError(t, err)
	require.Len(t, videos, 2)
	require.Equal(t, "first", videos[0].Title)
	require.Equal(t, "second", videos[1].Title)
	require.Equal(t, "2", videos[1].ID)
	blobs.AssertCalled(t, "Upload", ctx, "1.first.mp4", mock.Anything)
	blobs.AssertCalled(t, "Upload", ctx, "2.second.mp4", mock.Anything)
}

func TestVideoService_UploadPropagatesBlobErrors(t *testing.T) {
	ctx := context.Background()
	blobs := &mocks.BlobStore{}
	boom := errors.New("disk full")
	blobs.On("Exists", ctx, mock.Anything).Return(false, boom)

	svc := video.NewService(blobs, nil)
	_, err := svc.Upload(ctx, []video.File{{Name: "x", ContentType: "video/mp4", Content: strings.NewReader("")}})
	require.ErrorIs(t, err, boom)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestVideoService_UploadRequiresContent(t *testing.T) {
	svc := video.NewService(&mocks.BlobStore{}, nil)
	_, err := svc.Upload(context.Background(), []video.File{{Name: "x"}})
	require.ErrorIs(t, err, video.ErrInvalidInput)
}

func TestVideoService_DeleteUsesLastSegment(t *testing.T) {
	ctx := context.Background()
	blobs := &mocks.BlobStore{}
	blobs.On("Delete", ctx, "id1.clip.mp4").Return(nil).Twice()

	svc := video.NewService(blobs, nil)
	require.NoError(t, svc.Delete(ctx, "http://blobs/videos/id1.clip.mp4"))
	require.NoError(t, svc.Delete(ctx, "http://blobs/videos/id1.clip.mp4/"))
	blobs.AssertExpectations(t)
}

func TestVideoService_Prune(t *testing.T) {
	ctx := context.Background()
	blobs := &mocks.BlobStore{}
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cutoff := old.Add(time.Hour)
	blobs.On("List", ctx).Return([]blob.Descriptor{
		{Name: "keep.mp4", ModTime: old},
		{Name: "orphan.mp4", ModTime: old},
		{Name: "uploading.mp4", ModTime: cutoff.Add(time.Minute)},
	}, nil)
	blobs.On("Delete", ctx, "orphan.mp4").Return(nil).Once()

	svc := video.NewService(blobs, nil)
	deleted, err := svc.Prune(ctx, map[string]struct{}{"keep.mp4": {}}, cutoff)
	require.NoError(t, err)
	require.Equal(t, []string{"orphan.mp4"}, deleted)
	blobs.AssertNotCalled(t, "Delete", ctx, "keep.mp4")
	blobs.AssertNotCalled(t, "Delete", ctx, "uploading.mp4")
}

func TestBlobName(t *testing.T) {
	tests := map[string]string{
		"http://host/videos/a.b.mp4":  "a.b.mp4",
		"http://host/videos/a.b.mp4/": "a.b.mp4",
		"a.b.mp4":                     "a.b.mp4",
		"http://host/videos/a%20b":    "a b",
	}
	for in, want := range tests {
		require.Equal(t, want, video.BlobName(in), in)
	}
}

func TestExtension(t *testing.T) {
	require.Equal(t, ".mp4", video.Extension("video/mp4"))
	require.Equal(t, ".webm", video.Extension("video/webm; codecs=vp9"))
	require.Equal(t, ".quicktime", video.Extension("video/quicktime"))
	require.Equal(t, "", video.Extension(""))
}

func TestPair(t *testing.T) {
	files := []video.File{{Name: "a"}, {Name: "b"}}

	paired, err := video.Pair(files, []string{"ta", "tb"})
	require.NoError(t, err)
	require.Equal(t, "tb", paired[1].Thumbnail)

	unpaired, err := video.Pair(files, nil)
	require.NoError(t, err)
	require.Len(t, unpaired, 2)

	_, err = video.Pair(files, []string{"ta"})
	require.ErrorIs(t, err, video.ErrThumbnailMismatch)
}

func TestValidate(t *testing.T) {
	require.NoError(t, video.Validate(video.Video{Title: "clip"}))
	require.ErrorIs(t, video.Validate(video.Video{}), video.ErrInvalidInput)
	require.ErrorIs(t, video.Validate(video.Video{Title: strings.Repeat("x", 71)}), video.ErrInvalidInput)
	require.ErrorIs(t, video.Validate(video.Video{Title: "clip", Notes: []video.Note{{Time: 1}}}), video.ErrInvalidInput)
}
