package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/product_rating/internal/hash"
	"github.com/Skotchmaster/product_rating/internal/models"
	"github.com/Skotchmaster/product_rating/internal/repo"
	"github.com/Skotchmaster/product_rating/internal/tokens"
)

const msgEmailTaken = "user with this email already exists."

type UserService struct {
	Repo     *repo.GormRepo
	Secret   []byte
	TokenTTL time.Duration
}

// NormalizeEmail lower-cases the domain part and leaves the local part as
// typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

type NewUser struct {
	Email    string
	Name     string
	Password string
}

func (s *UserService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser creates an active user with the staff and superuser flags.
func (s *UserService) CreateSuperuser(ctx context.Context, in NewUser) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *UserService) create(ctx context.Context, in NewUser, super bool) (*models.User, error) {
	verr := NewValidationError()
	email := NormalizeEmail(in.Email)
	if email == "" {
		verr.Add("email", msgRequired)
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}

	pw, err := hash.HashPassword(in.Password)
	if errors.Is(err, hash.ErrEmptyPassword) {
		verr.Add("password", msgBlank)
	} else if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		Email:       email,
		Name:        strings.TrimSpace(in.Name),
		IsActive:    true,
		IsStaff:     super,
		IsSuperuser: super,
		Password:    pw,
	}
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if !verr.Has("email") {
			taken, err := tx.EmailTaken(ctx, email)
			if err != nil {
				return err
			}
			if taken {
				verr.Add("email", msgEmailTaken)
			}
		}
		if !verr.Empty() {
			return verr
		}
		return duplicate(tx.CreateUser(ctx, &u), "email", msgEmailTaken)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate resolves a token subject to an active user.
func (s *UserService) Authenticate(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, ErrInactive
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// IssueToken signs an access token for the active user with this email.
// A zero ttl falls back to the service default.
func (s *UserService) IssueToken(ctx context.Context, email string, ttl time.Duration) (string, error) {
	u, err := s.Repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", notFound(err)
	}
	if !u.IsActive {
		return "", ErrInactive
	}
	if ttl <= 0 {
		ttl = s.TokenTTL
	}
	return tokens.SignAccessToken(u.ID, u.Email, ttl, s.Secret)
}

// VerifyPassword checks password against the stored hash of the active user
// with this email.
func (s *UserService) VerifyPassword(ctx context.Context, email, password string) error {
	u, err := s.Repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return notFound(err)
	}
	if !u.IsActive {
		return ErrInactive
	}
	if !hash.CheckPassword(u.Password, password) {
		return ErrBadPassword
	}
	return nil
}
