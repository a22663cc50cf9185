package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/thread"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type threadNode struct {
	Comment  dto.CommentResponse `json:"comment"`
	Depth    int                 `json:"depth"`
	Replying bool                `json:"replying"`
	Children []threadNode        `json:"children"`
}

type threadSnapshot struct {
	PostID   int64            `json:"post_id"`
	Sort     model.SortOption `json:"sort"`
	ReplyTo  *int64           `json:"reply_to"`
	Comments []threadNode     `json:"comments"`
}

func newThreadNodes(nodes []*thread.Node, viewer *uuid.UUID) []threadNode {
	out := make([]threadNode, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, threadNode{
			Comment:  dto.NewCommentResponse(node.Comment, viewer),
			Depth:    node.Depth,
			Replying: node.Replying,
			Children: newThreadNodes(node.Children, viewer),
		})
	}
	return out
}

func newThreadSnapshot(s thread.Snapshot, viewer *uuid.UUID) threadSnapshot {
	return threadSnapshot{
		PostID:   s.PostID,
		Sort:     s.Sort,
		ReplyTo:  s.ReplyTo,
		Comments: newThreadNodes(s.Comments, viewer),
	}
}

// threadsOpen streams a live comment tree as server-sent events. The first event
// carries the session id used by the /threads routes; the session ends with the request.
func (h *Handler) threadsOpen(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)
	ctx := c.Request.Context()

	postID, err := parseInt64Param(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	sort, err := model.ParseSortOption(c.Query("sort"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	if _, err := h.services.Post.FindByID(ctx, postID); err != nil {
		errorResponse(c, err)
		return
	}

	viewer := viewerID(user)
	composer := thread.New(h.services.Comment, h.services.Comment, postID, viewer, sort, h.logger)
	if err := composer.Start(ctx); err != nil {
		errorResponse(c, err)
		return
	}

	sessionID := h.threads.Add(composer)
	defer h.threads.Remove(sessionID)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("session", gin.H{"session_id": sessionID})
	c.Writer.Flush()

	updates := composer.Updates()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case s, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", newThreadSnapshot(s, viewer))
			return true
		}
	})
}

// session resolves :sessionID and checks that the caller opened it.
func (h *Handler) session(c *gin.Context) (*thread.Composer, bool) {
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Param("sessionID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return nil, false
	}

	composer, ok := h.threads.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.NewBasicResponse(false, errSessionNotFound.Error()))
		return nil, false
	}

	if owner := composer.Viewer(); owner != nil {
		user := h.getCachedUserFromRequest(c)
		if user == nil || user.ID != *owner {
			c.JSON(http.StatusForbidden, dto.NewBasicResponse(false, errNotSessionOwner.Error()))
			return nil, false
		}
	}

	return composer, true
}

func (h *Handler) threadsSetSort(c *gin.Context) {
	composer, ok := h.session(c)
	if !ok {
		return
	}

	var input dto.SetSortRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	sort, err := model.ParseSortOption(input.Sort)
	if err != nil {
		errorResponse(c, err)
		return
	}

	if err := composer.SetSort(sort); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) threadsOpenReply(c *gin.Context) {
	composer, ok := h.session(c)
	if !ok {
		return
	}

	var input dto.OpenReplyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	if err := composer.OpenReply(input.CommentID); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) threadsCancelReply(c *gin.Context) {
	composer, ok := h.session(c)
	if !ok {
		return
	}

	composer.CancelReply()

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) threadsSubmitReply(c *gin.Context) {
	composer, ok := h.session(c)
	if !ok {
		return
	}
	user := h.getCachedUserFromRequest(c)

	var input dto.SubmitTextRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	comment, err := composer.SubmitReply(c.Request.Context(), user, input.Text)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCommentResponse(comment, &user.ID))
}

func (h *Handler) threadsSubmitComment(c *gin.Context) {
	composer, ok := h.session(c)
	if !ok {
		return
	}
	user := h.getCachedUserFromRequest(c)

	var input dto.SubmitTextRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	comment, err := composer.SubmitComment(c.Request.Context(), user, input.Text)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCommentResponse(comment, &user.ID))
}
