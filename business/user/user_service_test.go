package user

import (
	"context"
	"myJara/domain"
	"myJara/internal/repository/postgres"
	"myJara/internal/testutil"
	apperrors "myJara/pkg/errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Profile(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(postgres.NewUserRepository(db), validator.New())
	ctx := context.Background()
	id := "6f1c3c1e-4a53-4a70-9c52-2c1f0f3f9a11"

	_, err := svc.GetProfile(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	t.Run("first save needs an email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, id, "", ProfileInput{FullName: "Ada"})
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	})

	created, err := svc.UpdateProfile(ctx, id, domain.RoleRetailer, ProfileInput{FullName: " Ada Obi ", Email: "ADA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, domain.RoleRetailer, created.Role)

	updated, err := svc.UpdateProfile(ctx, id, "", ProfileInput{FullName: "Ada O.", AvatarURL: "https://cdn.example.com/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", updated.Email)

	got, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada O.", got.FullName)
	assert.Equal(t, "https://cdn.example.com/a.png", got.AvatarURL)

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, id, "", ProfileInput{FullName: ""})
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

		_, err = svc.UpdateProfile(ctx, id, "", ProfileInput{FullName: "Ada", AvatarURL: "nope"})
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "", "", ProfileInput{FullName: "x"})
		assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
	})
}
