package dto

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,min=2"`
	Tagline string `json:"tagline"`
	Content string `json:"content" binding:"required"`
}
