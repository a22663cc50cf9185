package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseCollectionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("collectionID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bookmarksGetByOwner(c *gin.Context) {
	userID, err := uuid.Parse(strings.TrimSpace(c.Param("userID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	collections, err := h.services.Bookmark.FindByOwner(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, collections)
}

func (h *Handler) bookmarksCreate(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	var input dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	collection, err := h.services.Bookmark.Create(c.Request.Context(), user.ID, input)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) bookmarksRename(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	collectionID, ok := parseCollectionID(c)
	if !ok {
		return
	}

	var input dto.RenameCollectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	collection, err := h.services.Bookmark.Rename(c.Request.Context(), user.ID, collectionID, input.Name)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

func (h *Handler) bookmarksDelete(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	collectionID, ok := parseCollectionID(c)
	if !ok {
		return
	}

	if err := h.services.Bookmark.Delete(c.Request.Context(), user.ID, collectionID); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) bookmarksAddPost(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	collectionID, ok := parseCollectionID(c)
	if !ok {
		return
	}

	var input dto.AddBookmarkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	if err := h.services.Bookmark.AddPost(c.Request.Context(), user.ID, collectionID, input.PostID); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) bookmarksRemovePost(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	collectionID, ok := parseCollectionID(c)
	if !ok {
		return
	}

	postID, err := parseInt64Param(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	if err := h.services.Bookmark.RemovePost(c.Request.Context(), user.ID, collectionID, postID); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}
