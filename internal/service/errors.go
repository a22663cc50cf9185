package service

import (
	"errors"
	"fmt"
)

var (
	ErrInternal         = errors.New("internal server error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
)

var (
	ErrCommentNotFound     = fmt.Errorf("%w: comment", ErrNotFound)
	ErrParentNotFound      = fmt.Errorf("%w: parent comment", ErrNotFound)
	ErrPostNotFound        = fmt.Errorf("%w: post", ErrNotFound)
	ErrCollectionNotFound  = fmt.Errorf("%w: bookmark collection", ErrNotFound)
	ErrEmptyText           = fmt.Errorf("%w: text must not be empty", ErrValidation)
	ErrParentPostMismatch  = fmt.Errorf("%w: parent comment belongs to another post", ErrValidation)
	ErrEmptyTitle          = fmt.Errorf("%w: title must not be empty", ErrValidation)
	ErrEmptyCollectionName = fmt.Errorf("%w: collection name must not be empty", ErrValidation)
	ErrCollectionNameTaken = fmt.Errorf("%w: a collection with this name already exists", ErrValidation)
	ErrAlreadyBookmarked   = fmt.Errorf("%w: post is already bookmarked in this collection", ErrValidation)
)
