package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/repository"
	"github.com/BloggingApp/threadly/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type postService struct {
	logger *zap.Logger
	repo   *repository.Repository
}

func newPostService(logger *zap.Logger, repo *repository.Repository) Post {
	return &postService{
		logger: logger,
		repo:   repo,
	}
}

func (s *postService) Create(ctx context.Context, authorID uuid.UUID, input dto.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	post := model.Post{
		AuthorID: authorID,
		Title:    title,
		Tagline:  strings.TrimSpace(input.Tagline),
		Content:  input.Content,
	}

	createdPost, err := s.repo.Postgres.Post.Create(ctx, post)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post: %s", authorID.String(), err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(createdPost.ID)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) from redis: %s", createdPost.ID, err.Error())
	}

	return createdPost, nil
}

func (s *postService) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	cachedPost, err := redisrepo.Get[model.FullPost](s.repo.Redis.Default, ctx, redisrepo.PostKey(id))
	if err == nil {
		if cachedPost == nil {
			return nil, ErrPostNotFound
		}
		return cachedPost, nil
	}
	if err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get post(%d) from redis: %s", id, err.Error())
		return nil, ErrInternal
	}

	post, err := s.repo.Postgres.Post.FindByID(ctx, id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Sugar().Errorf("failed to find post(%d) from postgres: %s", id, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.PostKey(id), post, time.Hour); err != nil {
		s.logger.Sugar().Errorf("failed to set post(%d) in redis: %s", id, err.Error())
	}

	if post == nil {
		return nil, ErrPostNotFound
	}

	return post, nil
}

func (s *postService) FindFeed(ctx context.Context, limit int, offset int) ([]*model.FullPost, error) {
	maxLimit(&limit)

	posts, err := s.repo.Postgres.Post.FindFeed(ctx, limit, offset)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find feed(limit=%d, offset=%d): %s", limit, offset, err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

func (s *postService) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, limit int, offset int) ([]*model.Post, error) {
	maxLimit(&limit)

	posts, err := s.repo.Postgres.Post.FindAuthorPosts(ctx, authorID, limit, offset)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find author(%s) posts from postgres: %s", authorID.String(), err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

// ToggleUpvote flips userID's upvote on the post and the user's upvoted posts mirror together.
func (s *postService) ToggleUpvote(ctx context.Context, postID int64, userID uuid.UUID) (*dto.PostUpvoteResponse, error) {
	post, upvoted, err := s.repo.Postgres.Post.ToggleUpvote(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to toggle user(%s) upvote on post(%d): %s", userID.String(), postID, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(postID), redisrepo.UserCacheKey(userID.String())).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to invalidate post(%d) cache: %s", postID, err.Error())
	}

	return &dto.PostUpvoteResponse{
		Post:    *post,
		Upvoted: upvoted,
	}, nil
}

func (s *postService) FindUserUpvoted(ctx context.Context, userID uuid.UUID) ([]*model.Post, error) {
	user, err := s.repo.Postgres.UserCache.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*model.Post{}, nil
		}
		s.logger.Sugar().Errorf("failed to find user(%s) upvoted posts: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	if len(user.UpvotedPosts) == 0 {
		return []*model.Post{}, nil
	}

	posts, err := s.repo.Postgres.Post.FindByIDs(ctx, user.UpvotedPosts)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find posts upvoted by user(%s): %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}
