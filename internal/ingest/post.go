package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxPostBytes is the largest accepted post text. Bigger posts are
// skipped during validation.
const MaxPostBytes = 1 << 20

// DefaultDataType is assigned to posts that carry no data_type.
const DefaultDataType = "discussion"

// Post is one discussion post from a corpus file.
type Post struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	DataType   string `json:"data_type"`
	Upvotes    int    `json:"upvotes"`
	Engagement int    `json:"engagement"`
	IsOfficial bool   `json:"is_official"`
}

// ValidatePost checks a post before it enters the pipeline.
func ValidatePost(p Post) error {
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("post text cannot be empty")
	}
	if strings.TrimSpace(p.Source) == "" {
		return fmt.Errorf("post source cannot be empty")
	}
	if len(p.Text) > MaxPostBytes {
		return fmt.Errorf("post text %d bytes exceeds maximum of %d", len(p.Text), MaxPostBytes)
	}
	return nil
}

// normalizePost fills defaults and clamps counters. Ranking treats
// upvotes and engagement as non-negative, so downvoted posts score as
// zero rather than below their base similarity.
func normalizePost(p Post) Post {
	p.Text = strings.TrimSpace(p.Text)
	if p.DataType == "" {
		p.DataType = DefaultDataType
	}
	if p.Upvotes < 0 {
		p.Upvotes = 0
	}
	if p.Engagement < 0 {
		p.Engagement = 0
	}
	return p
}

// pointNamespace scopes the UUIDs derived for chunk points.
var pointNamespace = uuid.MustParse("6f1c3d9a-52e4-4b87-9b0d-8c2a41e7f305")

// PointID derives a stable point UUID from a chunk's source and text.
// Re-ingesting an unchanged corpus overwrites points instead of
// duplicating them.
func PointID(source, text string) string {
	return uuid.NewSHA1(pointNamespace, []byte(source+"\x00"+text)).String()
}
