package model

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a node of a post's comment forest. ParentID is nil for top-level comments.
// AuthorDisplayName is captured at creation time and never re-synced.
type Comment struct {
	ID                int64       `json:"id"`
	PostID            int64       `json:"post_id"`
	ParentID          *int64      `json:"parent_id"`
	AuthorID          uuid.UUID   `json:"author_id"`
	AuthorDisplayName string      `json:"author_display_name"`
	Text              string      `json:"text"`
	UpvoteCount       int64       `json:"upvote_count"`
	Upvoters          []uuid.UUID `json:"upvoters"`
	CreatedAt         time.Time   `json:"created_at"`
}

func (c *Comment) IsUpvotedBy(userID uuid.UUID) bool {
	return ContainsMember(c.Upvoters, userID)
}

// SameParent reports whether the comment is addressed by the given parent key.
func (c *Comment) SameParent(parentID *int64) bool {
	if c.ParentID == nil || parentID == nil {
		return c.ParentID == nil && parentID == nil
	}
	return *c.ParentID == *parentID
}
