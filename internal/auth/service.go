package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Service performs credential checks and token issuance.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string
	User  User
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords produce the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return LoginResult{}, shared.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}
