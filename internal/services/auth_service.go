package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"murlie/internal/domain"
	"murlie/internal/repos"
	"murlie/internal/validate"
)

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// SignUp creates a USER account and signs the session in.
func (s *AuthService) SignUp(ctx context.Context, sid, name, email, password string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, invalid("email", "Enter a valid email address")
	}
	if !validate.Password(password) {
		return nil, invalid("password", "Password needs 8+ characters with upper, lower, digit and symbol")
	}
	name, ok = validate.Name(name)
	if !ok {
		return nil, invalid("name", "Name must be 1-40 characters")
	}

	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Name: name, Hash: string(hash), Role: domain.RoleUser}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}
