package dto

import "github.com/BloggingApp/threadly/internal/model"

type GetPost struct {
	Post      model.FullPost `json:"post"`
	IsUpvoted bool           `json:"is_upvoted"`
}

type PostUpvoteResponse struct {
	Post    model.Post `json:"post"`
	Upvoted bool       `json:"upvoted"`
}
