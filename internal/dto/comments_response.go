package dto

import (
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/pkg/utils"
	"github.com/google/uuid"
)

type CommentResponse struct {
	model.Comment
	HTML    string `json:"html"`
	Upvoted bool   `json:"upvoted"`
}

func NewCommentResponse(comment *model.Comment, viewerID *uuid.UUID) CommentResponse {
	resp := CommentResponse{
		Comment: *comment,
		HTML:    utils.RenderMarkdown(comment.Text),
	}
	if viewerID != nil {
		resp.Upvoted = comment.IsUpvotedBy(*viewerID)
	}

	return resp
}

func NewCommentResponses(comments []*model.Comment, viewerID *uuid.UUID) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment, viewerID))
	}
	return out
}
