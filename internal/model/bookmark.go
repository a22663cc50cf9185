package model

import (
	"time"

	"github.com/google/uuid"
)

type BookmarkCollection struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Posts     []int64   `json:"posts"`
	CreatedAt time.Time `json:"created_at"`
}
