package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/rabbitmq"
	"github.com/BloggingApp/threadly/internal/repository"
	"github.com/BloggingApp/threadly/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type commentService struct {
	logger *zap.Logger
	repo   *repository.Repository
	mq     MQ
}

func newCommentService(logger *zap.Logger, repo *repository.Repository, mq MQ) Comment {
	return &commentService{
		logger: logger,
		repo:   repo,
		mq:     mq,
	}
}

func (s *commentService) Create(ctx context.Context, author *model.CachedUser, input dto.CreateCommentDto) (*model.Comment, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	if input.ParentID != nil {
		parent, err := s.repo.Postgres.Comment.FindByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrParentNotFound
			}
			s.logger.Sugar().Errorf("failed to find parent comment(%d): %s", *input.ParentID, err.Error())
			return nil, ErrInternal
		}
		if parent.PostID != input.PostID {
			return nil, ErrParentPostMismatch
		}
	} else {
		if _, err := s.repo.Postgres.Post.FindByID(ctx, input.PostID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPostNotFound
			}
			s.logger.Sugar().Errorf("failed to find post(%d): %s", input.PostID, err.Error())
			return nil, ErrInternal
		}
	}

	comment := model.Comment{
		PostID:            input.PostID,
		ParentID:          input.ParentID,
		AuthorID:          author.ID,
		AuthorDisplayName: author.Name(),
		Text:              text,
	}

	createdComment, err := s.repo.Postgres.Comment.Create(ctx, comment)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) comment on post(%d): %s", author.ID.String(), input.PostID, err.Error())
		return nil, ErrInternal
	}

	s.notifyChildrenChanged(ctx, createdComment.PostID, createdComment.ParentID)
	s.publishCreated(ctx, createdComment)

	return createdComment, nil
}

func (s *commentService) publishCreated(ctx context.Context, comment *model.Comment) {
	if s.mq == nil {
		return
	}

	body, err := json.Marshal(dto.MQCommentCreatedMsg{
		CommentID: comment.ID,
		PostID:    comment.PostID,
		ParentID:  comment.ParentID,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to marshal comment(%d) created message: %s", comment.ID, err.Error())
		return
	}

	if err := s.mq.PublishJSON(ctx, rabbitmq.COMMENT_CREATED_QUEUE, body); err != nil {
		s.logger.Sugar().Errorf("failed to publish comment(%d) created message: %s", comment.ID, err.Error())
	}
}

func (s *commentService) notifyChildrenChanged(ctx context.Context, postID int64, parentID *int64) {
	channel := redisrepo.CommentChildrenChannel(postID, parentID)
	if err := s.repo.Redis.ChangeFeed.Publish(ctx, channel); err != nil {
		s.logger.Sugar().Errorf("failed to publish change to channel(%s): %s", channel, err.Error())
	}
}

func (s *commentService) FindChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) ([]*model.Comment, error) {
	comments, err := s.repo.Postgres.Comment.FindChildren(ctx, postID, parentID, sort)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find post(%d) comments: %s", postID, err.Error())
		return nil, ErrInternal
	}

	return comments, nil
}

// SubscribeChildren delivers the full current children of (postID, parentID) first and
// again after every change. A slow reader only ever receives the latest result set.
// The returned channel is closed once ctx is done.
func (s *commentService) SubscribeChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) (<-chan []*model.Comment, error) {
	subCtx, cancel := context.WithCancel(ctx)

	channel := redisrepo.CommentChildrenChannel(postID, parentID)
	changes, err := s.repo.Redis.ChangeFeed.Subscribe(subCtx, channel)
	if err != nil {
		cancel()
		s.logger.Sugar().Errorf("failed to subscribe to channel(%s): %s", channel, err.Error())
		return nil, ErrInternal
	}

	initial, err := s.FindChildren(subCtx, postID, parentID, sort)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []*model.Comment, 1)
	out <- initial

	go func() {
		defer cancel()
		defer close(out)

		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}

				comments, err := s.repo.Postgres.Comment.FindChildren(subCtx, postID, parentID, sort)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					s.logger.Sugar().Errorf("failed to refresh channel(%s): %s", channel, err.Error())
					continue
				}

				deliverLatest(out, comments)
			}
		}
	}()

	return out, nil
}

// deliverLatest replaces an undelivered value in out with v. out must have a single writer.
func deliverLatest[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

// ToggleUpvote only touches commentID if it belongs to postID.
func (s *commentService) ToggleUpvote(ctx context.Context, postID int64, commentID int64, userID uuid.UUID) (*model.Comment, error) {
	comment, err := s.repo.Postgres.Comment.ToggleUpvote(ctx, postID, commentID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		s.logger.Sugar().Errorf("failed to toggle user(%s) upvote on comment(%d): %s", userID.String(), commentID, err.Error())
		return nil, ErrInternal
	}

	s.notifyChildrenChanged(ctx, comment.PostID, comment.ParentID)

	return comment, nil
}

// Delete removes a comment written by requesterID. Replies are left in place.
func (s *commentService) Delete(ctx context.Context, postID int64, commentID int64, requesterID uuid.UUID) error {
	comment, err := s.repo.Postgres.Comment.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCommentNotFound
		}
		s.logger.Sugar().Errorf("failed to find comment(%d): %s", commentID, err.Error())
		return ErrInternal
	}

	if comment.PostID != postID {
		return ErrCommentNotFound
	}
	if comment.AuthorID != requesterID {
		return ErrPermissionDenied
	}

	deleted, err := s.repo.Postgres.Comment.Delete(ctx, postID, commentID, requesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCommentNotFound
		}
		s.logger.Sugar().Errorf("failed to delete comment(%d): %s", commentID, err.Error())
		return ErrInternal
	}

	s.notifyChildrenChanged(ctx, deleted.PostID, deleted.ParentID)

	return nil
}
