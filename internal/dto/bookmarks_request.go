package dto

type CreateCollectionRequest struct {
	Name   string `json:"name" binding:"required"`
	PostID *int64 `json:"post_id"`
}

type RenameCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddBookmarkRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}
