package postgres

import (
	"context"

	"github.com/BloggingApp/threadly/internal/config"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const MAX_LIMIT = 50

func maxLimit(limit *int) {
	if *limit <= 0 || *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
}

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, cfg.DSN())
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindByID(ctx context.Context, id int64) (*model.FullPost, error)
	FindFeed(ctx context.Context, limit int, offset int) ([]*model.FullPost, error)
	FindAuthorPosts(ctx context.Context, authorID uuid.UUID, limit int, offset int) ([]*model.Post, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Post, error)
	ToggleUpvote(ctx context.Context, postID int64, userID uuid.UUID) (*model.Post, bool, error)
}

type Comment interface {
	Create(ctx context.Context, comment model.Comment) (*model.Comment, error)
	FindByID(ctx context.Context, id int64) (*model.Comment, error)
	FindChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) ([]*model.Comment, error)
	ToggleUpvote(ctx context.Context, postID int64, commentID int64, userID uuid.UUID) (*model.Comment, error)
	Delete(ctx context.Context, postID int64, commentID int64, authorID uuid.UUID) (*model.Comment, error)
}

type UserCache interface {
	Create(ctx context.Context, cachedUser model.CachedUser) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
}

type Bookmark interface {
	Create(ctx context.Context, collection model.BookmarkCollection) (*model.BookmarkCollection, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.BookmarkCollection, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.BookmarkCollection, error)
	NameTaken(ctx context.Context, ownerID uuid.UUID, name string, exceptID *uuid.UUID) (bool, error)
	Rename(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, name string) error
	AddPost(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, postID int64) (bool, error)
	RemovePost(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, postID int64) error
	Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error
}

type PostgresRepository struct {
	Post
	Comment
	UserCache
	Bookmark
}

func New(db *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		Post:      newPostRepo(db, logger),
		Comment:   newCommentRepo(db),
		UserCache: newUserCacheRepo(db),
		Bookmark:  newBookmarkRepo(db),
	}
}
