package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sushihentaime/blogify/internal/common"
)

var ErrUnknownUser = errors.New("user_id does not exist")

var _ PostStore = (*PostgresPostStore)(nil)

// PostgresPostStore stores posts in the posts table.
type PostgresPostStore struct {
	db *sql.DB
}

func NewPostgresPostStore(db *sql.DB) *PostgresPostStore {
	return &PostgresPostStore{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

// UniqueViolation reports a unique constraint error on the named constraint.
func UniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *PostgresPostStore) Insert(ctx context.Context, post *Post) error {
	defer common.TrackCall("postgres", "insert_post")()

	query := `
		INSERT INTO posts (id, title, content, featured_image, status, user_id, author_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	args := []any{post.ID, post.Title, post.Content, post.FeaturedImage, post.Status, post.UserID, post.AuthorName}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		switch {
		case UniqueViolation(err, "posts_pkey"):
			return ErrDuplicateSlug
		case ForeignKeyError(err, "posts_user_id_fkey"):
			return ErrUnknownUser
		default:
			return err
		}
	}

	return nil
}

func (m *PostgresPostStore) Get(ctx context.Context, id string) (*Post, error) {
	defer common.TrackCall("postgres", "get_post")()

	query := `
		SELECT id, title, content, featured_image, status, user_id, author_name, created_at, updated_at
		FROM posts
		WHERE id = $1`

	var post Post
	err := m.db.QueryRowContext(ctx, query, id).Scan(&post.ID, &post.Title, &post.Content, &post.FeaturedImage, &post.Status, &post.UserID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

// Update keeps the current value of every nil field.
func (m *PostgresPostStore) Update(ctx context.Context, id string, update *PostUpdate) (*Post, error) {
	defer common.TrackCall("postgres", "update_post")()

	query := `
		UPDATE posts
		SET title = COALESCE($2, title),
			content = COALESCE($3, content),
			featured_image = COALESCE($4, featured_image),
			status = COALESCE($5, status),
			updated_at = now()
		WHERE id = $1
		RETURNING id, title, content, featured_image, status, user_id, author_name, created_at, updated_at`

	args := []any{id, update.Title, update.Content, update.FeaturedImage, update.Status}

	var post Post
	err := m.db.QueryRowContext(ctx, query, args...).Scan(&post.ID, &post.Title, &post.Content, &post.FeaturedImage, &post.Status, &post.UserID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *PostgresPostStore) Delete(ctx context.Context, id string) error {
	defer common.TrackCall("postgres", "delete_post")()

	query := `
		DELETE FROM posts
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// postFilter is shared by the count and page queries of List.
const postFilter = `
		WHERE ($1 = '' OR status = $1)
		AND ($2 = '' OR user_id = $2)
		AND ($3 = '' OR featured_image = $3)
		AND ($4 = '' OR title ILIKE '%' || $4 || '%' OR content ILIKE '%' || $4 || '%')`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List sorts by created_at descending. Total counts every matching post, also
// when the page is past the last row.
func (m *PostgresPostStore) List(ctx context.Context, filter ListFilter) (*PostList, error) {
	defer common.TrackCall("postgres", "list_posts")()

	args := []any{filter.Status, filter.UserID, filter.FeaturedImage, likeEscaper.Replace(filter.Query)}

	list := &PostList{Items: []Post{}}

	err := m.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`+postFilter, args...).Scan(&list.Total)
	if err != nil {
		return nil, err
	}

	if list.Total == 0 || filter.Offset >= list.Total {
		return list, nil
	}

	query := `
		SELECT id, title, content, featured_image, status, user_id, author_name, created_at, updated_at
		FROM posts` + postFilter + `
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`

	rows, err := m.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var post Post
		err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.FeaturedImage, &post.Status, &post.UserID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
