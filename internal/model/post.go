package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID          int64       `json:"id"`
	AuthorID    uuid.UUID   `json:"author_id"`
	Title       string      `json:"title"`
	Tagline     string      `json:"tagline"`
	Content     string      `json:"content"`
	UpvoteCount int64       `json:"upvote_count"`
	Upvoters    []uuid.UUID `json:"upvoters"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type FullPost struct {
	Post   Post       `json:"post"`
	Author UserAuthor `json:"author"`
}

func (p *Post) IsUpvotedBy(userID uuid.UUID) bool {
	return ContainsMember(p.Upvoters, userID)
}
