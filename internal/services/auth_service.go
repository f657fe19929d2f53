package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// AuthService registers users and issues signed access tokens.
type AuthService struct {
	DB         *gorm.DB
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthResult is the outcome of a successful register or login: the user row
// (password hash never serialized) plus a signed bearer token.
type AuthResult struct {
	User  *domain.User
	Token string
}

// Register creates a user with a bcrypt-hashed password and returns the new
// user with a token so the client is logged in immediately. A taken email
// yields ErrEmailExists. The uniqueness check and insert run in one
// transaction so concurrent registrations cannot both pass the check.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*AuthResult, error) {
	if role == "" {
		role = domain.RoleSales
	}

	var user *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUserByEmail(ctx, tx, email); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		// Hash only once the email is known to be free; bcrypt at cost 12 is
		// too expensive to spend on a conflicting registration.
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
		if err != nil {
			return err
		}
		u, err := repo.CreateUser(ctx, tx, name, email, string(hash), role)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailExists
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials so callers cannot probe which
// part failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// signToken mints an HS256 token whose subject is the user ID.
func (s *AuthService) signToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// ParseToken validates a bearer token and returns the user ID it was issued
// for. Signature, algorithm, and expiry failures surface as jwt errors so the
// HTTP layer can distinguish an expired session from a malformed token.
func ParseToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return claims.Subject, nil
}
