package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/sequence"
)

var (
	ErrWeakPassword       = errors.New("auth: password does not meet strength rules")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

type UserStore interface {
	Insert(ctx context.Context, u *market.User) error
	FindByEmail(ctx context.Context, email string) (*market.User, error)
}

type Service struct {
	Users    UserStore
	Seq      sequence.Allocator
	Secret   []byte
	TokenTTL time.Duration
	Log      *zap.Logger
}

type claims struct {
	UserID   int64 `json:"uid"`
	IsSeller bool  `json:"seller"`
	jwt.StandardClaims
}

// Signup registers a user and returns a signed session token.
func (s *Service) Signup(ctx context.Context, email, username, password string, isSeller bool) (string, error) {
	if !ValidPassword(password) {
		return "", ErrWeakPassword
	}
	if _, err := s.Users.FindByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, market.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	id, err := s.Seq.Next(ctx, sequence.UserCounter)
	if err != nil {
		return "", fmt.Errorf("auth: allocate user id: %w", err)
	}

	u := &market.User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsSeller:     isSeller,
	}
	if err := s.Users.Insert(ctx, u); err != nil {
		return "", err
	}
	s.Log.Info("user signed up", zap.Int64("user_id", id), zap.Bool("seller", isSeller))
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, market.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.issue(u)
}

// Resolve turns a bearer token into the Session handed to services.
func (s *Service) Resolve(tokenString string) (market.Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		return market.Session{}, ErrInvalidToken
	}
	return market.Session{UserID: c.UserID, IsSeller: c.IsSeller}, nil
}

func (s *Service) issue(u *market.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:   u.ID,
		IsSeller: u.IsSeller,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.TokenTTL).Unix(),
		},
	})
	return token.SignedString(s.Secret)
}
