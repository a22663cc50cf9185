package service

import (
	"context"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/repository"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const MAX_LIMIT = 50

func maxLimit(limit *int) {
	if *limit <= 0 || *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
}

// MQ is the slice of *rabbitmq.MQConn the services use.
type MQ interface {
	Consume(queue string) (<-chan amqp.Delivery, error)
	PublishJSON(ctx context.Context, queue string, body []byte) error
}

type Post interface {
	Create(ctx context.Context, authorID uuid.UUID, input dto.CreatePostRequest) (*model.Post, error)
	FindByID(ctx context.Context, id int64) (*model.FullPost, error)
	FindFeed(ctx context.Context, limit int, offset int) ([]*model.FullPost, error)
	FindAuthorPosts(ctx context.Context, authorID uuid.UUID, limit int, offset int) ([]*model.Post, error)
	ToggleUpvote(ctx context.Context, postID int64, userID uuid.UUID) (*dto.PostUpvoteResponse, error)
	FindUserUpvoted(ctx context.Context, userID uuid.UUID) ([]*model.Post, error)
}

type Comment interface {
	Create(ctx context.Context, author *model.CachedUser, input dto.CreateCommentDto) (*model.Comment, error)
	FindChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) ([]*model.Comment, error)
	SubscribeChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) (<-chan []*model.Comment, error)
	ToggleUpvote(ctx context.Context, postID int64, commentID int64, userID uuid.UUID) (*model.Comment, error)
	Delete(ctx context.Context, postID int64, commentID int64, requesterID uuid.UUID) error
}

type UserCache interface {
	CreateOrGet(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
	StartConsumeUpdates(ctx context.Context)
}

type Bookmark interface {
	Create(ctx context.Context, ownerID uuid.UUID, input dto.CreateCollectionRequest) (*model.BookmarkCollection, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.BookmarkCollection, error)
	Rename(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID, name string) (*model.BookmarkCollection, error)
	AddPost(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID, postID int64) error
	RemovePost(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID, postID int64) error
	Delete(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID) error
}

type Service struct {
	Post
	Comment
	UserCache
	Bookmark
}

func New(logger *zap.Logger, repo *repository.Repository, mq MQ) *Service {
	return &Service{
		Post:      newPostService(logger, repo),
		Comment:   newCommentService(logger, repo, mq),
		UserCache: newUserCacheService(logger, repo, mq),
		Bookmark:  newBookmarkService(logger, repo),
	}
}

func (s *Service) StartConsumeAll(ctx context.Context) {
	go s.UserCache.StartConsumeUpdates(ctx)
}
