package userservice

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Name,
		u.Email,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case err.Error() == "pq: duplicate key value violates unique constraint \"users_username_key\"":
			return ErrDuplicateUsername
		case err.Error() == "pq: duplicate key value violates unique constraint \"users_email_key\"":
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	return nil
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, name, email, password, version
		FROM users
		WHERE username = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Password.hash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, name, email, created_at, updated_at, version
		FROM users
		WHERE id = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

// getUsers returns all users, each carrying the reduced projection of the
// blogs they own.
func (m *DBModel) getUsers(ctx context.Context) ([]User, error) {
	query := `
		SELECT u.id, u.username, u.name, u.email, u.created_at, u.updated_at, u.version, b.id, b.title, b.url
		FROM users u
		LEFT JOIN blogs b ON b.user_id = u.id
		ORDER BY u.id, b.id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var blogID sql.NullInt64
		var blogTitle, blogURL sql.NullString

		err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.Version, &blogID, &blogTitle, &blogURL)
		if err != nil {
			return nil, err
		}

		if len(users) == 0 || users[len(users)-1].ID != u.ID {
			users = append(users, u)
		}

		if blogID.Valid {
			last := &users[len(users)-1]
			last.Blogs = append(last.Blogs, BlogRef{
				ID:    int(blogID.Int64),
				Title: blogTitle.String,
				URL:   blogURL.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (m *DBModel) updateUserPassword(ctx context.Context, pwd Password, id int, version int) error {
	query := `
		UPDATE users
		SET password = $1
		WHERE id = $2 AND version = $3`

	_, err := m.db.ExecContext(ctx, query, pwd.hash, id, version)
	if err != nil {
		return err
	}

	return nil
}
