package userservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/bloglist/internal/common"
)

const (
	AccessTokenTime time.Duration = 7 * 24 * time.Hour

	// UserCacheTime bounds how long the authenticate middleware may serve a
	// user record without hitting the database.
	UserCacheTime time.Duration = 5 * time.Minute
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	c      *common.Cache
	secret []byte
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`

	Blogs []BlogRef `json:"blogs,omitempty"`
}

// BlogRef is the reduced blog projection attached to each user in listings.
type BlogRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}
