package postgres

import (
	"context"

	"github.com/BloggingApp/threadly/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookmarkColumns = "id, owner_id, name, posts, created_at"

type bookmarkRepo struct {
	db *pgxpool.Pool
}

func newBookmarkRepo(db *pgxpool.Pool) Bookmark {
	return &bookmarkRepo{
		db: db,
	}
}

func scanCollection(row pgx.Row) (*model.BookmarkCollection, error) {
	var collection model.BookmarkCollection
	if err := row.Scan(
		&collection.ID,
		&collection.OwnerID,
		&collection.Name,
		&collection.Posts,
		&collection.CreatedAt,
	); err != nil {
		return nil, err
	}

	if collection.Posts == nil {
		collection.Posts = []int64{}
	}

	return &collection, nil
}

func (r *bookmarkRepo) Create(ctx context.Context, collection model.BookmarkCollection) (*model.BookmarkCollection, error) {
	if collection.Posts == nil {
		collection.Posts = []int64{}
	}

	created, err := scanCollection(r.db.QueryRow(
		ctx,
		"INSERT INTO bookmark_collections(id, owner_id, name, posts) VALUES($1, $2, $3, $4) RETURNING "+bookmarkColumns,
		collection.ID,
		collection.OwnerID,
		collection.Name,
		collection.Posts,
	))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return created, nil
}

func (r *bookmarkRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BookmarkCollection, error) {
	return scanCollection(r.db.QueryRow(ctx, "SELECT "+bookmarkColumns+" FROM bookmark_collections WHERE id = $1", id))
}

func (r *bookmarkRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.BookmarkCollection, error) {
	rows, err := r.db.Query(
		ctx,
		"SELECT "+bookmarkColumns+" FROM bookmark_collections WHERE owner_id = $1 ORDER BY created_at",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []*model.BookmarkCollection{}
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}

		collections = append(collections, collection)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collections, nil
}

func (r *bookmarkRepo) NameTaken(ctx context.Context, ownerID uuid.UUID, name string, exceptID *uuid.UUID) (bool, error) {
	var taken bool
	err := r.db.QueryRow(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM bookmark_collections WHERE owner_id = $1 AND name = $2 AND ($3::uuid IS NULL OR id <> $3::uuid))",
		ownerID,
		name,
		exceptID,
	).Scan(&taken)
	return taken, err
}

func (r *bookmarkRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *bookmarkRepo) Rename(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, name string) error {
	return r.exec(ctx, "UPDATE bookmark_collections SET name = $3 WHERE id = $1 AND owner_id = $2", id, ownerID, name)
}

// AddPost reports false when the post was already in the collection.
func (r *bookmarkRepo) AddPost(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, postID int64) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		"UPDATE bookmark_collections SET posts = array_append(posts, $3) WHERE id = $1 AND owner_id = $2 AND NOT ($3 = ANY(posts))",
		id,
		ownerID,
		postID,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *bookmarkRepo) RemovePost(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, postID int64) error {
	return r.exec(ctx, "UPDATE bookmark_collections SET posts = array_remove(posts, $3) WHERE id = $1 AND owner_id = $2", id, ownerID, postID)
}

func (r *bookmarkRepo) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	return r.exec(ctx, "DELETE FROM bookmark_collections WHERE id = $1 AND owner_id = $2", id, ownerID)
}
