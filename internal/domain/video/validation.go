package video

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTitleLength = 70

// Validate checks a video submitted as part of a ticket.
func Validate(v Video) error {
	if strings.TrimSpace(v.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(v.Title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLength)
	}
	for _, n := range v.Notes {
		if strings.TrimSpace(n.Text) == "" {
			return fmt.Errorf("%w: note text is required", ErrInvalidInput)
		}
	}
	return nil
}

// Pair joins uploaded files with their thumbnails by position.
// thumbnails may be empty; otherwise both lists must have equal length.
func Pair(files []File, thumbnails []string) ([]File, error) {
	if len(thumbnails) == 0 {
		return files, nil
	}
	if len(thumbnails) != len(files) {
		return nil, fmt.Errorf("%w: %d files, %d thumbnails", ErrThumbnailMismatch, len(files), len(thumbnails))
	}
	out := make([]File, len(files))
	for i, f := range files {
		f.Thumbnail = thumbnails[i]
		out[i] = f
	}
	return out, nil
}
