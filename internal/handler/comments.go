package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) commentsCreate(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	var input dto.CreateCommentDto
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createdComment, err := h.services.Comment.Create(c.Request.Context(), user, input)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCommentResponse(createdComment, &user.ID))
}

// commentsGet lists one level: top-level comments, or the replies of ?parent=.
func (h *Handler) commentsGet(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseInt64Param(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	var parentID *int64
	if parent := strings.TrimSpace(c.Query("parent")); parent != "" {
		id, err := strconv.ParseInt(parent, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidParentID.Error()))
			return
		}
		parentID = &id
	}

	sort, err := model.ParseSortOption(c.Query("sort"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	comments, err := h.services.Comment.FindChildren(c.Request.Context(), postID, parentID, sort)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCommentResponses(comments, viewerID(user)))
}

func (h *Handler) commentsDelete(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err0 := parseInt64Param(c, "postID")
	commentID, err1 := parseInt64Param(c, "commentID")
	if err0 != nil || err1 != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	if err := h.services.Comment.Delete(c.Request.Context(), postID, commentID, user.ID); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) commentsToggleUpvote(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err0 := parseInt64Param(c, "postID")
	commentID, err1 := parseInt64Param(c, "commentID")
	if err0 != nil || err1 != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	comment, err := h.services.Comment.ToggleUpvote(c.Request.Context(), postID, commentID, user.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCommentResponse(comment, &user.ID))
}
