package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sushihentaime/bloglist/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, secret []byte) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		c:      c,
		secret: secret,
	}
}

// CreateUser creates a new user account and publishes a user.created event.
func (s *UserService) CreateUser(ctx context.Context, username, name, email, password string) (*User, error) {
	// Perform validation
	v := common.NewValidator()
	validateUsername(v, username)
	validateName(v, name)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Name:     name,
		Email:    email,
		Password: Password{Plain: password},
	}

	// Set the password hash
	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, err
	}

	// Insert the user into the database
	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	data := struct {
		Email    string
		Username string
	}{
		Email:    u.Email,
		Username: u.Username,
	}

	emailData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	// Publish the user created event
	err = s.mb.Publish(ctx, emailData, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// LoginUser checks the credentials and returns a signed access token together
// with the user record.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*string, *User, error) {
	// Validate the credentials format first
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	// Get the user from the database
	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil, ErrAuthenticationFailure
		default:
			return nil, nil, err
		}
	}

	// Compare the password hash
	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, nil, err
	}

	if !ok {
		return nil, nil, ErrAuthenticationFailure
	} else {
		// rehash the password and update the user
		if err := user.Password.set(password); err != nil {
			return nil, nil, err
		}

		if err := s.m.updateUserPassword(ctx, user.Password, user.ID, user.Version); err != nil {
			return nil, nil, err
		}
	}

	token, err := newAccessToken(user.ID, s.secret, AccessTokenTime)
	if err != nil {
		return nil, nil, err
	}

	return &token, user, nil
}

// GetUserByAccessToken verifies the token signature against the shared secret
// and resolves the subject user id to a user record.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	claims, err := parseAccessToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, claims.UserID)
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeyUser(id)); ok {
		if user, ok := cached.(*User); ok {
			return user, nil
		}
	}

	user, err := s.m.getUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyUser(id), user, UserCacheTime)

	return user, nil
}

// GetUsers returns all users, each with the blogs they own.
func (s *UserService) GetUsers(ctx context.Context) ([]User, error) {
	return s.m.getUsers(ctx)
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
