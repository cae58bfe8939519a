package services_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/testutil/mocks"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockUserRepository)
	svc := services.NewUserService(repo)

	repo.On("Create", ctx, "Ada", "ada@example.com").Return(&models.User{ID: 1, Name: "Ada", Email: "ada@example.com"}, nil).Once()
	user, err := svc.CreateUser(ctx, models.NewUser{Name: " Ada ", Email: "ADA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	repo.On("Create", ctx, "Ada", "ada@example.com").Return(nil, repository.ErrDuplicate).Once()
	_, err = svc.CreateUser(ctx, models.NewUser{Name: "Ada", Email: "ada@example.com"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))

	_, err = svc.CreateUser(ctx, models.NewUser{Name: "Ada", Email: "not-an-email"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestGetAndDeleteUser_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockUserRepository)
	svc := services.NewUserService(repo)
	repo.On("Get", ctx, int64(9)).Return(nil, nil)
	repo.On("Delete", ctx, int64(9)).Return(sql.ErrNoRows)

	_, err := svc.GetUser(ctx, 9)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	err = svc.DeleteUser(ctx, 9)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	repo.AssertNotCalled(t, "List", mock.Anything)
}
