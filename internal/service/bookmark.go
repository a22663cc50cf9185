package service

import (
	"context"
	"errors"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/repository"
	"github.com/BloggingApp/threadly/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type bookmarkService struct {
	logger *zap.Logger
	repo   *repository.Repository
}

func newBookmarkService(logger *zap.Logger, repo *repository.Repository) Bookmark {
	return &bookmarkService{
		logger: logger,
		repo:   repo,
	}
}

func (s *bookmarkService) Create(ctx context.Context, ownerID uuid.UUID, input dto.CreateCollectionRequest) (*model.BookmarkCollection, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrEmptyCollectionName
	}

	if err := s.ensureNameFree(ctx, ownerID, name, nil); err != nil {
		return nil, err
	}

	posts := []int64{}
	if input.PostID != nil {
		if err := s.ensurePostExists(ctx, *input.PostID); err != nil {
			return nil, err
		}
		posts = append(posts, *input.PostID)
	}

	collection, err := s.repo.Postgres.Bookmark.Create(ctx, model.BookmarkCollection{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Posts:   posts,
	})
	if err != nil {
		if errors.Is(err, postgres.ErrUniqueViolation) {
			return nil, ErrCollectionNameTaken
		}
		s.logger.Sugar().Errorf("failed to create user(%s) bookmark collection: %s", ownerID.String(), err.Error())
		return nil, ErrInternal
	}

	return collection, nil
}

func (s *bookmarkService) ensureNameFree(ctx context.Context, ownerID uuid.UUID, name string, exceptID *uuid.UUID) error {
	taken, err := s.repo.Postgres.Bookmark.NameTaken(ctx, ownerID, name, exceptID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to check user(%s) collection name: %s", ownerID.String(), err.Error())
		return ErrInternal
	}
	if taken {
		return ErrCollectionNameTaken
	}
	return nil
}

func (s *bookmarkService) ensurePostExists(ctx context.Context, postID int64) error {
	if _, err := s.repo.Postgres.Post.FindByID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to find post(%d): %s", postID, err.Error())
		return ErrInternal
	}
	return nil
}

// owned loads the collection and checks that ownerID owns it.
func (s *bookmarkService) owned(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID) (*model.BookmarkCollection, error) {
	collection, err := s.repo.Postgres.Bookmark.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		s.logger.Sugar().Errorf("failed to find bookmark collection(%s): %s", collectionID.String(), err.Error())
		return nil, ErrInternal
	}

	if collection.OwnerID != ownerID {
		return nil, ErrPermissionDenied
	}

	return collection, nil
}

func (s *bookmarkService) mapWriteErr(err error, collectionID uuid.UUID) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrCollectionNotFound
	case errors.Is(err, postgres.ErrUniqueViolation):
		return ErrCollectionNameTaken
	}
	s.logger.Sugar().Errorf("failed to update bookmark collection(%s): %s", collectionID.String(), err.Error())
	return ErrInternal
}

func (s *bookmarkService) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.BookmarkCollection, error) {
	collections, err := s.repo.Postgres.Bookmark.FindByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) bookmark collections: %s", ownerID.String(), err.Error())
		return nil, ErrInternal
	}

	return collections, nil
}

// Rename leaves the collection untouched when the new name is already used by another of the owner's collections.
func (s *bookmarkService) Rename(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID, name string) (*model.BookmarkCollection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCollectionName
	}

	collection, err := s.owned(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}

	if collection.Name == name {
		return collection, nil
	}

	if err := s.ensureNameFree(ctx, ownerID, name, &collectionID); err != nil {
		return nil, err
	}

	if err := s.repo.Postgres.Bookmark.Rename(ctx, collectionID, ownerID, name); err != nil {
		return nil, s.mapWriteErr(err, collectionID)
	}

	collection.Name = name

	return collection, nil
}

func (s *bookmarkService) AddPost(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID, postID int64) error {
	if _, err := s.owned(ctx, ownerID, collectionID); err != nil {
		return err
	}

	if err := s.ensurePostExists(ctx, postID); err != nil {
		return err
	}

	added, err := s.repo.Postgres.Bookmark.AddPost(ctx, collectionID, ownerID, postID)
	if err != nil {
		return s.mapWriteErr(err, collectionID)
	}
	if !added {
		return ErrAlreadyBookmarked
	}

	return nil
}

func (s *bookmarkService) RemovePost(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID, postID int64) error {
	if _, err := s.owned(ctx, ownerID, collectionID); err != nil {
		return err
	}

	if err := s.repo.Postgres.Bookmark.RemovePost(ctx, collectionID, ownerID, postID); err != nil {
		return s.mapWriteErr(err, collectionID)
	}

	return nil
}

func (s *bookmarkService) Delete(ctx context.Context, ownerID uuid.UUID, collectionID uuid.UUID) error {
	if _, err := s.owned(ctx, ownerID, collectionID); err != nil {
		return err
	}

	if err := s.repo.Postgres.Bookmark.Delete(ctx, collectionID, ownerID); err != nil {
		return s.mapWriteErr(err, collectionID)
	}

	return nil
}
