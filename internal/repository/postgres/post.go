package postgres

import (
	"context"
	"errors"

	"github.com/BloggingApp/threadly/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postColumns = "p.id, p.author_id, p.title, p.tagline, p.content, p.upvote_count, p.upvoters, p.created_at, p.updated_at"

type postRepo struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func newPostRepo(db *pgxpool.Pool, logger *zap.Logger) Post {
	return &postRepo{
		db:     db,
		logger: logger,
	}
}

func postScanTargets(post *model.Post) []any {
	return []any{
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Tagline,
		&post.Content,
		&post.UpvoteCount,
		&post.Upvoters,
		&post.CreatedAt,
		&post.UpdatedAt,
	}
}

func scanFullPost(row pgx.Row) (*model.FullPost, error) {
	var post model.FullPost
	targets := append(postScanTargets(&post.Post), &post.Author.Username, &post.Author.DisplayName, &post.Author.AvatarURL)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	if post.Post.Upvoters == nil {
		post.Post.Upvoters = []uuid.UUID{}
	}

	return &post, nil
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO posts(author_id, title, tagline, content)
		VALUES($1, $2, $3, $4)
		RETURNING id, upvote_count, created_at, updated_at`,
		post.AuthorID,
		post.Title,
		post.Tagline,
		post.Content,
	).Scan(&post.ID, &post.UpvoteCount, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	post.Upvoters = []uuid.UUID{}

	return &post, nil
}

func (r *postRepo) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	return scanFullPost(r.db.QueryRow(
		ctx,
		`SELECT `+postColumns+`, u.username, u.display_name, u.avatar_url
		FROM posts p
		JOIN cached_users u ON p.author_id = u.id
		WHERE p.id = $1`,
		id,
	))
}

func (r *postRepo) FindFeed(ctx context.Context, limit int, offset int) ([]*model.FullPost, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`, u.username, u.display_name, u.avatar_url
		FROM posts p
		JOIN cached_users u ON p.author_id = u.id
		ORDER BY p.upvote_count DESC, p.created_at DESC
		LIMIT $1
		OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*model.FullPost{}
	for rows.Next() {
		post, err := scanFullPost(rows)
		if err != nil {
			return nil, err
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepo) collect(rows pgx.Rows) ([]*model.Post, error) {
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(postScanTargets(&post)...); err != nil {
			return nil, err
		}
		if post.Upvoters == nil {
			post.Upvoters = []uuid.UUID{}
		}

		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepo) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, limit int, offset int) ([]*model.Post, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM posts p
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2
		OFFSET $3`,
		authorID,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}

	return r.collect(rows)
}

func (r *postRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM posts p
		WHERE p.id = ANY($1)
		ORDER BY p.created_at DESC`,
		ids,
	)
	if err != nil {
		return nil, err
	}

	return r.collect(rows)
}

// ToggleUpvote flips the user's membership in the post's upvoters and mirrors the result
// into cached_users.upvoted_posts inside a single transaction.
func (r *postRepo) ToggleUpvote(ctx context.Context, postID int64, userID uuid.UUID) (*model.Post, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Sugar().Errorf("failed to rollback post(%d) upvote transaction: %s", postID, err.Error())
		}
	}()

	var post model.Post
	if err := tx.QueryRow(
		ctx,
		`UPDATE posts p SET
			upvoters = CASE WHEN $2::uuid = ANY(p.upvoters) THEN array_remove(p.upvoters, $2::uuid) ELSE array_append(p.upvoters, $2::uuid) END,
			upvote_count = CASE WHEN $2::uuid = ANY(p.upvoters) THEN cardinality(p.upvoters) - 1 ELSE cardinality(p.upvoters) + 1 END
		WHERE p.id = $1
		RETURNING `+postColumns,
		postID,
		userID,
	).Scan(postScanTargets(&post)...); err != nil {
		return nil, false, err
	}
	if post.Upvoters == nil {
		post.Upvoters = []uuid.UUID{}
	}

	upvoted := model.ContainsMember(post.Upvoters, userID)

	mirror := "UPDATE cached_users SET upvoted_posts = array_remove(upvoted_posts, $2) WHERE id = $1"
	if upvoted {
		mirror = "UPDATE cached_users SET upvoted_posts = array_append(upvoted_posts, $2) WHERE id = $1 AND NOT ($2 = ANY(upvoted_posts))"
	}
	if _, err := tx.Exec(ctx, mirror, userID, postID); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return &post, upvoted, nil
}
