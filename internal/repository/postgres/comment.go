package postgres

import (
	"context"

	"github.com/BloggingApp/threadly/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = "id, post_id, parent_id, author_id, author_display_name, text, upvote_count, upvoters, created_at"

type commentRepo struct {
	db *pgxpool.Pool
}

func newCommentRepo(db *pgxpool.Pool) Comment {
	return &commentRepo{
		db: db,
	}
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var comment model.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.ParentID,
		&comment.AuthorID,
		&comment.AuthorDisplayName,
		&comment.Text,
		&comment.UpvoteCount,
		&comment.Upvoters,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}

	if comment.Upvoters == nil {
		comment.Upvoters = []uuid.UUID{}
	}

	return &comment, nil
}

func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(
		ctx,
		`INSERT INTO comments(post_id, parent_id, author_id, author_display_name, text)
		VALUES($1, $2, $3, $4, $5)
		RETURNING `+commentColumns,
		comment.PostID,
		comment.ParentID,
		comment.AuthorID,
		comment.AuthorDisplayName,
		comment.Text,
	))
}

func (r *commentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id))
}

func orderClause(sort model.SortOption) string {
	if sort == model.SortByRecent {
		return " ORDER BY created_at DESC, id DESC"
	}
	return " ORDER BY upvote_count DESC, created_at DESC, id DESC"
}

func (r *commentRepo) FindChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) ([]*model.Comment, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if parentID == nil {
		rows, err = r.db.Query(
			ctx,
			"SELECT "+commentColumns+" FROM comments WHERE post_id = $1 AND parent_id IS NULL"+orderClause(sort),
			postID,
		)
	} else {
		rows, err = r.db.Query(
			ctx,
			"SELECT "+commentColumns+" FROM comments WHERE post_id = $1 AND parent_id = $2"+orderClause(sort),
			postID,
			*parentID,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}

		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// ToggleUpvote flips the user's membership in one statement; the row lock serializes
// concurrent toggles on the same comment.
func (r *commentRepo) ToggleUpvote(ctx context.Context, postID int64, commentID int64, userID uuid.UUID) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(
		ctx,
		`UPDATE comments SET
			upvoters = CASE WHEN $2::uuid = ANY(upvoters) THEN array_remove(upvoters, $2::uuid) ELSE array_append(upvoters, $2::uuid) END,
			upvote_count = CASE WHEN $2::uuid = ANY(upvoters) THEN cardinality(upvoters) - 1 ELSE cardinality(upvoters) + 1 END
		WHERE id = $1 AND post_id = $3
		RETURNING `+commentColumns,
		commentID,
		userID,
		postID,
	))
}

func (r *commentRepo) Delete(ctx context.Context, postID int64, commentID int64, authorID uuid.UUID) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(
		ctx,
		"DELETE FROM comments WHERE id = $1 AND author_id = $2 AND post_id = $3 RETURNING "+commentColumns,
		commentID,
		authorID,
		postID,
	))
}
