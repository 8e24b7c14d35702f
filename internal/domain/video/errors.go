package video

import "errors"

var (
	// ErrThumbnailMismatch indicates files and thumbnails could not be paired.
	ErrThumbnailMismatch = errors.New("video files and thumbnails do not match")
	// ErrInvalidInput indicates an invalid video or upload.
	ErrInvalidInput = errors.New("invalid video input")
)
