package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserForeignKey = errors.New("user_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
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

func (m *BlogModel) insert(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, author, url, likes, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at, version`

	args := []any{blog.Title, blog.Author, blog.URL, blog.Likes, blog.User.ID}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// getBlogById joins the users table so each blog carries its owner projection.
func (m *BlogModel) getBlogById(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.author, b.url, b.likes, b.created_at, b.updated_at, b.version, u.id, u.username, u.name
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var blog Blog
	err := row.Scan(&blog.ID, &blog.Title, &blog.Author, &blog.URL, &blog.Likes, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version, &blog.User.ID, &blog.User.Username, &blog.User.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &blog, nil
}

// getBlogs returns the full listing. There is no pagination or filtering on
// this path.
func (m *BlogModel) getBlogs(ctx context.Context) ([]Blog, error) {
	query := `
		SELECT b.id, b.title, b.author, b.url, b.likes, b.created_at, b.updated_at, b.version, u.id, u.username, u.name
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		ORDER BY b.created_at DESC, b.id DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Author, &blog.URL, &blog.Likes, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version, &blog.User.ID, &blog.User.Username, &blog.User.Name)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// updateBlog replaces the mutable fields of a blog. The WHERE clause keeps
// the owner constraint so a stale caller can never touch another user's blog.
func (m *BlogModel) updateBlog(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, author = $2, url = $3, likes = $4, updated_at = now(), version = version + 1
		WHERE id = $5 AND user_id = $6
		RETURNING created_at, updated_at, version`

	args := []any{blog.Title, blog.Author, blog.URL, blog.Likes, blog.ID, blog.User.ID}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) deleteBlog(ctx context.Context, blogId, userId int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1 AND user_id = $2`

	res, err := m.db.ExecContext(ctx, query, blogId, userId)
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

// likeBlog increments the likes counter in a single statement so concurrent
// likes never lose an update.
func (m *BlogModel) likeBlog(ctx context.Context, id int) (*Blog, error) {
	query := `
		UPDATE blogs b
		SET likes = b.likes + 1, updated_at = now(), version = b.version + 1
		FROM users u
		WHERE b.id = $1 AND u.id = b.user_id
		RETURNING b.id, b.title, b.author, b.url, b.likes, b.created_at, b.updated_at, b.version, u.id, u.username, u.name`

	var blog Blog
	err := m.db.QueryRowContext(ctx, query, id).Scan(&blog.ID, &blog.Title, &blog.Author, &blog.URL, &blog.Likes, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version, &blog.User.ID, &blog.User.Username, &blog.User.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &blog, nil
}
