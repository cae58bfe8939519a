package services

import (
	"context"
	"strings"

	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

// UserService handles user-related business logic
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, input models.NewUser) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing users")

	users, err := s.userRepo.List(ctx)
	if err != nil {
		log.WithError(err).Error("failed to list users")
		return nil, storeError(err, "user", "")
	}
	return users, nil
}

func (s *userService) CreateUser(ctx context.Context, input models.NewUser) (*models.User, error) {
	log := logger.FromContext(ctx)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	log.Debug("creating user: email=%s", input.Email)

	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	user, err := s.userRepo.Create(ctx, input.Name, input.Email)
	if err != nil {
		log.WithError(err).Error("failed to create user")
		return nil, storeError(err, "user with email "+input.Email, input.Email)
	}
	log.Info("user created: id=%d", user.ID)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting user: id=%d", id)

	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		log.WithError(err).Error("failed to get user")
		return nil, storeError(err, "user", id)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", id)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting user: id=%d", id)

	if err := s.userRepo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("failed to delete user")
		return storeError(err, "user", id)
	}
	log.Info("user deleted: id=%d", id)
	return nil
}
