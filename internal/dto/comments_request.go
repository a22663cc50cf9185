package dto

type CreateCommentDto struct {
	PostID   int64  `json:"post_id" binding:"required"`
	ParentID *int64 `json:"parent_id"`
	Text     string `json:"text" binding:"required"`
}

type SetSortRequest struct {
	Sort string `json:"sort" binding:"required"`
}

type OpenReplyRequest struct {
	CommentID int64 `json:"comment_id" binding:"required"`
}

type SubmitTextRequest struct {
	Text string `json:"text" binding:"required"`
}
