package user

import (
	"context"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

type ProfileInput struct {
	FullName  string `json:"full_name" validate:"required,max=120"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	// Email is only used the first time a profile is saved.
	Email string `json:"email" validate:"omitempty,email"`
}

type userService struct {
	userRepo UserRepository
	validate *validator.Validate
}

func NewUserService(userRepo UserRepository, validate *validator.Validate) *userService {
	return &userService{
		userRepo: userRepo,
		validate: validate,
	}
}

func (s *userService) GetProfile(ctx context.Context, id string) (domain.User, error) {
	if id == "" {
		return domain.User{}, apperrors.Unauthorized("login required")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find user", err)
		return domain.User{}, err
	}

	return user, nil
}

// UpdateProfile saves the display name and avatar shown to chat counterparties.
// The first call for an identity creates its profile row and needs an email.
func (s *userService) UpdateProfile(ctx context.Context, id, role string, input ProfileInput) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("context error: %w", err)
	}

	if id == "" {
		return domain.User{}, apperrors.Unauthorized("login required")
	}

	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(input); err != nil {
		logger.Error("Invalid profile data", err)
		return domain.User{}, apperrors.Validation(err.Error())
	}

	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil && !apperrors.Is(err, apperrors.CodeNotFound) {
		logger.Error("failed to find user", err)
		return domain.User{}, apperrors.Upstream("failed to update profile", err)
	}

	if err != nil {
		if input.Email == "" {
			return domain.User{}, apperrors.Validation("email is required to create a profile")
		}
		if role == "" {
			role = domain.RoleCustomer
		}

		user := domain.User{
			ID:        id,
			FullName:  input.FullName,
			Email:     input.Email,
			AvatarURL: input.AvatarURL,
			Role:      role,
		}
		if err := s.userRepo.Create(ctx, &user); err != nil {
			logger.Error("failed to create user profile", err)
			return domain.User{}, apperrors.Upstream("failed to create profile", err)
		}

		logger.Info("user profile created", "user_id", id)
		return user, nil
	}

	existing.FullName = input.FullName
	existing.AvatarURL = input.AvatarURL
	if err := s.userRepo.UpdateProfile(ctx, &existing); err != nil {
		logger.Error("failed to update user profile", err)
		return domain.User{}, apperrors.Upstream("failed to update profile", err)
	}

	return existing, nil
}
