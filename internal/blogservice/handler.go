package blogservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/bloglist/internal/common"
)

func NewBlogService(db *sql.DB, c *common.Cache) *BlogService {
	return &BlogService{m: newBlogModel(db), c: c}
}

type CreateBlogRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
	UserID int    `json:"user_id"`
}

type UpdateBlogRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
}

// CreateBlog creates a new blog owned by the given user. An absent likes
// value defaults to zero.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateAuthor(v, req.Author)
	validateURL(v, req.URL)
	validateLikes(v, req.Likes)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:  req.Title,
		Author: req.Author,
		URL:    req.URL,
		Likes:  req.Likes,
		User:   BlogUser{ID: req.UserID},
	}

	if err := s.m.insert(ctx, blog); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyBlogList())

	return blog, nil
}

// GetBlogByID returns a blog with its owner projection.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getBlogById(ctx, id)
}

// GetBlogs returns every blog. The listing is cached until the next mutation.
func (s *BlogService) GetBlogs(ctx context.Context) ([]Blog, error) {
	if cached, ok := s.c.Get(common.CacheKeyBlogList()); ok {
		if blogs, ok := cached.([]Blog); ok {
			return blogs, nil
		}
	}

	blogs, err := s.m.getBlogs(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyBlogList(), blogs)

	return blogs, nil
}

// UpdateBlog replaces the title, author, url and likes of the blog. Only the
// owner may update a blog; the caller resolves ownership before any write.
func (s *BlogService) UpdateBlog(ctx context.Context, req *UpdateBlogRequest, blogId, userId int) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateAuthor(v, req.Author)
	validateURL(v, req.URL)
	validateLikes(v, req.Likes)
	validateInt(v, blogId, "id")
	validateInt(v, userId, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.getBlogById(ctx, blogId)
	if err != nil {
		return nil, err
	}

	blog.Title = req.Title
	blog.Author = req.Author
	blog.URL = req.URL
	blog.Likes = req.Likes

	if err := s.m.updateBlog(ctx, blog); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyBlogList())

	return blog, nil
}

// DeleteBlog deletes a blog. Only the owner may delete a blog.
func (s *BlogService) DeleteBlog(ctx context.Context, blogId, userId int) error {
	v := common.NewValidator()
	validateInt(v, blogId, "id")
	validateInt(v, userId, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.m.deleteBlog(ctx, blogId, userId); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyBlogList())

	return nil
}

// LikeBlog adds one like to the blog. Each call adds exactly one; the
// increment runs as a single atomic statement.
func (s *BlogService) LikeBlog(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.likeBlog(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyBlogList())

	return blog, nil
}
