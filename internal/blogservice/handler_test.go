package blogservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/bloglist/internal/common"
)

// setupTestUser is a helper function to create a test user in the database.
func setupTestUser(db *sql.DB, username, email string) (*int, error) {
	// set the password
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (username, name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err = db.QueryRow(query, username, "Test User", email, randomBytes).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, func() error, *int, error) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	id, err := setupTestUser(db, "testuser", "testuser@example.com")
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM blogs")
		if err != nil {
			return err
		}

		cache.Flush()

		return nil
	}

	return NewBlogService(db, cache), db, cleanup, id, nil
}

func createRandomBlog(db *sql.DB, userId int) (*int, error) {
	query := `
		INSERT INTO blogs (title, author, url, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err := db.QueryRow(query, "Test Blog", "Test Author", "https://example.com/blog", userId).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func TestCreateBlog(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name          string
		blog          *CreateBlogRequest
		expectedLikes int
		expectedErr   error
	}{
		{
			name: "valid blog",
			blog: &CreateBlogRequest{
				Title:  "Test Blog",
				Author: "Test Author",
				URL:    "https://example.com/blog",
				UserID: *userId,
			},
			expectedLikes: 0,
			expectedErr:   nil,
		},
		{
			name: "valid blog with likes",
			blog: &CreateBlogRequest{
				Title:  "Test Blog",
				Author: "Test Author",
				URL:    "https://example.com/blog",
				Likes:  7,
				UserID: *userId,
			},
			expectedLikes: 7,
			expectedErr:   nil,
		},
		{
			name: "empty title",
			blog: &CreateBlogRequest{
				Title:  "",
				Author: "Test Author",
				URL:    "https://example.com/blog",
				UserID: *userId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name: "empty url",
			blog: &CreateBlogRequest{
				Title:  "Test Blog",
				Author: "Test Author",
				URL:    "",
				UserID: *userId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"url": "must be provided"}},
		},
		{
			name: "negative likes",
			blog: &CreateBlogRequest{
				Title:  "Test Blog",
				Author: "Test Author",
				URL:    "https://example.com/blog",
				Likes:  -1,
				UserID: *userId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"likes": "must not be negative"}},
		},
		{
			name: "empty user ID",
			blog: &CreateBlogRequest{
				Title:  "Test Blog",
				Author: "Test Author",
				URL:    "https://example.com/blog",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"user_id": "must be greater than zero"}},
		},
		{
			name: "invalid user ID",
			blog: &CreateBlogRequest{
				Title:  "Test Blog",
				Author: "Test Author",
				URL:    "https://example.com/blog",
				UserID: 999,
			},
			expectedErr: ErrUserForeignKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			blog, err := s.CreateBlog(ctx, tc.blog)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.NotNil(t, blog)
				assert.NotZero(t, blog.ID)
				assert.Equal(t, tc.expectedLikes, blog.Likes)

				var count int
				err := db.QueryRow("SELECT COUNT(*) FROM blogs").Scan(&count)
				assert.NoError(t, err)
				assert.Equal(t, 1, count)
			} else {
				assert.Nil(t, blog)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}
}

func TestGetBlogById(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	blogId, err := createRandomBlog(db, *userId)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		id          int
		expectedErr error
	}{
		{
			name:        "valid ID",
			id:          *blogId,
			expectedErr: nil,
		},
		{
			name:        "invalid ID",
			id:          999,
			expectedErr: ErrRecordNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			blog, err := s.GetBlogByID(ctx, tc.id)
			if tc.expectedErr != nil {
				assert.Nil(t, blog)
				assert.Equal(t, tc.expectedErr, err)
			} else {
				assert.NotNil(t, blog)
				assert.NoError(t, err)
				assert.Equal(t, "Test Blog", blog.Title)
				assert.Equal(t, *userId, blog.User.ID)
				assert.Equal(t, "testuser", blog.User.Username)
				assert.Equal(t, "Test User", blog.User.Name)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}
}

func TestGetBlogs(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	t.Run("empty listing", func(t *testing.T) {
		blogs, err := s.GetBlogs(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, blogs)
		assert.Len(t, blogs, 0)
	})

	t.Run("full listing", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			_, err := createRandomBlog(db, *userId)
			assert.NoError(t, err)
		}

		s.c.Delete(common.CacheKeyBlogList())

		blogs, err := s.GetBlogs(ctx)
		assert.NoError(t, err)
		assert.Len(t, blogs, 5)
		assert.Equal(t, "testuser", blogs[0].User.Username)
	})

	t.Run("cached listing", func(t *testing.T) {
		blogs, err := s.GetBlogs(ctx)
		assert.NoError(t, err)
		assert.Len(t, blogs, 5)

		// A direct insert bypasses the service, so the cached listing does
		// not see it.
		_, err = createRandomBlog(db, *userId)
		assert.NoError(t, err)

		blogs, err = s.GetBlogs(ctx)
		assert.NoError(t, err)
		assert.Len(t, blogs, 5)
	})
}

func TestUpdateBlog(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		req         *UpdateBlogRequest
		userId      func() int
		expectedErr error
	}{
		{
			name: "valid update",
			req: &UpdateBlogRequest{
				Title:  "Updated Blog",
				Author: "Updated Author",
				URL:    "https://example.com/updated",
				Likes:  3,
			},
			userId:      func() int { return *userId },
			expectedErr: nil,
		},
		{
			name: "empty title",
			req: &UpdateBlogRequest{
				Title:  "",
				Author: "Updated Author",
				URL:    "https://example.com/updated",
			},
			userId:      func() int { return *userId },
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name: "empty url",
			req: &UpdateBlogRequest{
				Title:  "Updated Blog",
				Author: "Updated Author",
				URL:    "",
			},
			userId:      func() int { return *userId },
			expectedErr: common.ValidationError{Errors: map[string]string{"url": "must be provided"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			blogId, err := createRandomBlog(db, *userId)
			assert.NoError(t, err)

			blog, err := s.UpdateBlog(ctx, tc.req, *blogId, tc.userId())
			assert.Equal(t, tc.expectedErr, err)

			var b Blog
			err = db.QueryRow("SELECT title, author, url, likes, version FROM blogs WHERE id = $1", *blogId).Scan(&b.Title, &b.Author, &b.URL, &b.Likes, &b.Version)
			assert.NoError(t, err)

			if tc.expectedErr == nil {
				assert.Equal(t, tc.req.Title, b.Title)
				assert.Equal(t, tc.req.Author, b.Author)
				assert.Equal(t, tc.req.URL, b.URL)
				assert.Equal(t, tc.req.Likes, b.Likes)
				assert.Equal(t, 2, b.Version)
				assert.Equal(t, b.Version, blog.Version)
			} else {
				assert.Nil(t, blog)
				assert.Equal(t, "Test Blog", b.Title)
				assert.Equal(t, 1, b.Version)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}

	t.Run("missing blog", func(t *testing.T) {
		ctx := context.Background()

		blog, err := s.UpdateBlog(ctx, &UpdateBlogRequest{Title: "Updated Blog", URL: "https://example.com/updated"}, 999, *userId)
		assert.Equal(t, ErrRecordNotFound, err)
		assert.Nil(t, blog)
	})
}

func TestDeleteBlog(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	otherUserId, err := setupTestUser(db, "otheruser", "otheruser@example.com")
	assert.NoError(t, err)

	blogId, err := createRandomBlog(db, *userId)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		blogId      int
		userId      int
		expectedErr error
	}{
		{
			name:        "other user",
			blogId:      *blogId,
			userId:      *otherUserId,
			expectedErr: ErrRecordNotFound,
		},
		{
			name:        "invalid ID",
			blogId:      999,
			userId:      *userId,
			expectedErr: ErrRecordNotFound,
		},
		{
			name:        "valid ID",
			blogId:      *blogId,
			userId:      *userId,
			expectedErr: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			err := s.DeleteBlog(ctx, tc.blogId, tc.userId)
			assert.Equal(t, tc.expectedErr, err)

			var count int
			qerr := db.QueryRow("SELECT COUNT(*) FROM blogs").Scan(&count)
			assert.NoError(t, qerr)

			if err == nil {
				assert.Equal(t, 0, count)
			} else {
				assert.Equal(t, 1, count)
			}
		})
	}

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})
}

func TestLikeBlog(t *testing.T) {
	s, db, cleanup, userId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	blogId, err := createRandomBlog(db, *userId)
	assert.NoError(t, err)

	ctx := context.Background()

	t.Run("first like", func(t *testing.T) {
		blog, err := s.LikeBlog(ctx, *blogId)
		assert.NoError(t, err)
		assert.Equal(t, 1, blog.Likes)
		assert.Equal(t, "testuser", blog.User.Username)
	})

	t.Run("repeated like", func(t *testing.T) {
		blog, err := s.LikeBlog(ctx, *blogId)
		assert.NoError(t, err)
		assert.Equal(t, 2, blog.Likes)

		var likes int
		err = db.QueryRow("SELECT likes FROM blogs WHERE id = $1", *blogId).Scan(&likes)
		assert.NoError(t, err)
		assert.Equal(t, 2, likes)
	})

	t.Run("missing blog", func(t *testing.T) {
		blog, err := s.LikeBlog(ctx, 999)
		assert.Equal(t, ErrRecordNotFound, err)
		assert.Nil(t, blog)
	})
}
