package auth

import (
	"context"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/pkg/apperror"
	"github.com/bryanpmx/caf-api/pkg/auth"
	"github.com/bryanpmx/caf-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	jwt    auth.JWTService
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, jwt auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{users: users, jwt: jwt, hasher: hasher}
}

// Login verifies credentials and issues the access token the identity
// middleware later verifies. Invalid email and invalid password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid credentials")
	}
	if !user.Active {
		return nil, apperror.Unauthenticated("account disabled")
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthenticated("invalid credentials")
	}

	token, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &model.LoginResponse{
		AccessToken: token,
		UserID:      user.ID,
		Role:        user.Role,
	}, nil
}
