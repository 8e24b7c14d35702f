package video

import "io"

// Video is an attachment stored in the blob container.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	FileLocation string `json:"fileLocation"`
	Thumbnail    string `json:"thumbnail"`
	Notes        []Note `json:"notes"`
	Size         int64  `json:"size,omitempty"`
	Checksum     string `json:"checksum,omitempty"`
}

// Note is a timestamped comment on a video.
type Note struct {
	// Time is the offset into the video in seconds.
	Time float64 `json:"time"`
	Text string  `json:"text"`
}

// File is an upload paired with its thumbnail.
type File struct {
	Name        string
	ContentType string
	Thumbnail   string
	Content     io.Reader
}
