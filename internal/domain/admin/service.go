package admin

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/pkg/jwt"
	"github.com/bonuslab/loyalty-api/internal/pkg/password"
)

type Service struct {
	repo       Repository
	jwtService *jwt.Service
}

func NewService(repo Repository, jwtService *jwt.Service) *Service {
	return &Service{repo: repo, jwtService: jwtService}
}

// Login verifies credentials and issues a session token. A missing
// account and a wrong password both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	a, err := s.repo.GetByMobile(ctx, req.Mobile)
	if err != nil {
		return nil, err
	}
	if a == nil || !password.Verify(req.Password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(a.Mobile, a.Role)
	if err != nil {
		log.Error().Err(err).Str("mobile", a.Mobile).Msg("Failed to generate token")
		return nil, ErrInternal
	}

	log.Info().Str("mobile", a.Mobile).Str("role", a.Role).Msg("Admin logged in")
	return &LoginResponse{Token: token, Admin: a}, nil
}

// Create registers a staff account with a hashed password.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Admin, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, ErrInternal
	}

	a := &Admin{
		Mobile:       req.Mobile,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if req.BranchID != nil {
		a.BranchID = sql.NullInt64{Int64: *req.BranchID, Valid: true}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	log.Info().Str("mobile", a.Mobile).Str("role", a.Role).Msg("Admin account created")
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Admin, error) {
	return s.repo.List(ctx)
}
