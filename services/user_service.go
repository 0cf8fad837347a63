package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"condo-app/models"
	"condo-app/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserService checks credentials and issues the tokens AuthMiddleware
// accepts.
type UserService struct {
	repo       *repositories.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewUserService(repo *repositories.UserRepository, secret string, accessTTL, refreshTTL time.Duration) *UserService {
	return &UserService{repo: repo, secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Tokens is a fresh access token plus the refresh token kept in a cookie.
type Tokens struct {
	Access  string
	Refresh string
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hash
	return s.repo.Create(ctx, user)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Login verifies the password of the user identified by email or username.
func (s *UserService) Login(ctx context.Context, login, password string) (*models.User, Tokens, error) {
	user, err := s.repo.FindByLogin(ctx, login)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, Tokens{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Tokens{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, Tokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issue(user.ID)
	return user, tokens, err
}

// Refresh trades a valid refresh token for a new access token.
func (s *UserService) Refresh(refreshToken string) (string, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "refresh" {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return "", ErrInvalidToken
	}
	return s.sign(uint(userID), "access", s.accessTTL)
}

func (s *UserService) issue(userID uint) (Tokens, error) {
	access, err := s.sign(userID, "access", s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.sign(userID, "refresh", s.refreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

func (s *UserService) sign(userID uint, typ string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"typ":     typ,
		"exp":     time.Now().Add(ttl).Unix(),
		"jti":     uuid.NewString(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
