package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/service"
	"github.com/BloggingApp/threadly/internal/thread"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	cachedUserKey = "cached-user"

	defaultClientOrigin = "http://localhost:3000"
)

type Handler struct {
	logger        *zap.Logger
	services      *service.Service
	threads       *thread.Registry
	upvoteLimiter *rateLimiter
}

func New(logger *zap.Logger, services *service.Service, threads *thread.Registry) *Handler {
	return &Handler{
		logger:        logger,
		services:      services,
		threads:       threads,
		upvoteLimiter: newRateLimiter(viper.GetInt("rate-limit.upvotes-per-minute")),
	}
}

// clientOrigin returns the configured CORS origin, or the local dev client when it is
// missing or not an http(s) origin.
func (h *Handler) clientOrigin() string {
	origin := strings.TrimSpace(viper.GetString("client.origin"))
	if origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		return origin
	}

	h.logger.Sugar().Warnf("invalid client.origin(%q), using %s", origin, defaultClientOrigin)
	return defaultClientOrigin
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(h.loggerMiddleware)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{h.clientOrigin()},
		AllowMethods:     []string{"POST", "GET", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.POST("", h.authMiddleware, h.postsCreate)
			posts.GET("/feed", h.postsFeed)
			posts.GET("/upvoted", h.authMiddleware, h.postsGetUpvoted)
			posts.GET("/author/:userID", h.postsGetByAuthor)

			post := posts.Group("/:postID")
			{
				post.GET("", h.notRequiredAuthMiddleware, h.postsGetByID)
				post.POST("/upvote", h.authMiddleware, h.upvoteRateLimitMiddleware, h.postsToggleUpvote)
				post.GET("/thread", h.notRequiredAuthMiddleware, h.threadsOpen)
			}
		}

		comments := v1.Group("/comments")
		{
			comments.POST("", h.authMiddleware, h.commentsCreate)

			postComments := comments.Group("/:postID")
			{
				postComments.GET("", h.notRequiredAuthMiddleware, h.commentsGet)

				comment := postComments.Group("/:commentID")
				{
					comment.DELETE("", h.authMiddleware, h.commentsDelete)
					comment.POST("/upvote", h.authMiddleware, h.upvoteRateLimitMiddleware, h.commentsToggleUpvote)
				}
			}
		}

		threads := v1.Group("/threads/:sessionID", h.notRequiredAuthMiddleware)
		{
			threads.PATCH("/sort", h.threadsSetSort)
			threads.PUT("/reply", h.threadsOpenReply)
			threads.DELETE("/reply", h.threadsCancelReply)
			threads.POST("/reply/submit", h.authMiddleware, h.threadsSubmitReply)
			threads.POST("/comments", h.authMiddleware, h.threadsSubmitComment)
		}

		v1.GET("/users/:userID/bookmarks", h.bookmarksGetByOwner)

		bookmarks := v1.Group("/bookmarks", h.authMiddleware)
		{
			bookmarks.POST("", h.bookmarksCreate)

			collection := bookmarks.Group("/:collectionID")
			{
				collection.PATCH("", h.bookmarksRename)
				collection.DELETE("", h.bookmarksDelete)
				collection.POST("/posts", h.bookmarksAddPost)
				collection.DELETE("/posts/:postID", h.bookmarksRemovePost)
			}
		}
	}

	return r
}

func (h *Handler) getUserDataFromClaims(ctx context.Context, claims jwt.MapClaims, accessToken string) (*model.CachedUser, error) {
	idString, ok := claims["id"].(string)
	if !ok {
		return nil, errors.New("token has no id claim")
	}
	id, err := uuid.Parse(idString)
	if err != nil {
		return nil, err
	}

	return h.services.UserCache.CreateOrGet(ctx, id, accessToken)
}

// getCachedUserFromRequest returns nil for anonymous requests.
func (h *Handler) getCachedUserFromRequest(c *gin.Context) *model.CachedUser {
	userReq, exists := c.Get(cachedUserKey)
	if !exists {
		return nil
	}

	user, ok := userReq.(model.CachedUser)
	if !ok {
		return nil
	}

	return &user
}

func viewerID(user *model.CachedUser) *uuid.UUID {
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}
