package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseInt64Param(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
}

func parsePaging(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		return 0, 0, err
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, errInvalidPaging
	}
	return limit, offset, nil
}

func (h *Handler) postsCreate(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	var input dto.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), user.ID, input)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, *createdPost)
}

func (h *Handler) postsFeed(c *gin.Context) {
	limit, offset, err := parsePaging(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPaging.Error()))
		return
	}

	posts, err := h.services.Post.FindFeed(c.Request.Context(), limit, offset)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByAuthor(c *gin.Context) {
	limit, offset, err := parsePaging(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPaging.Error()))
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(c.Param("userID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	posts, err := h.services.Post.FindAuthorPosts(c.Request.Context(), userID, limit, offset)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByID(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseInt64Param(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	post, err := h.services.Post.FindByID(c.Request.Context(), postID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	postDto := dto.GetPost{
		Post: *post,
	}

	if user != nil {
		postDto.IsUpvoted = post.Post.IsUpvotedBy(user.ID)
	}

	c.JSON(http.StatusOK, postDto)
}

func (h *Handler) postsToggleUpvote(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseInt64Param(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	resp, err := h.services.Post.ToggleUpvote(c.Request.Context(), postID, user.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) postsGetUpvoted(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	posts, err := h.services.Post.FindUserUpvoted(c.Request.Context(), user.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
