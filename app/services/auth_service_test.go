package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/auth"
)

type fakeIdentityStore struct {
	items map[primitive.ObjectID]models.User
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{items: map[primitive.ObjectID]models.User{}}
}

func (f *fakeIdentityStore) Create(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	f.items[user.ID] = *user
	return nil
}

func (f *fakeIdentityStore) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	if u, ok := f.items[id]; ok {
		return u, nil
	}
	return models.User{}, repositories.ErrNotFound
}

func (f *fakeIdentityStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.items {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (f *fakeIdentityStore) ExistsByEmailExcept(_ context.Context, email string, except primitive.ObjectID) (bool, error) {
	for id, u := range f.items {
		if id != except && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIdentityStore) Update(_ context.Context, user *models.User) error {
	if _, ok := f.items[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.items[user.ID] = *user
	return nil
}

func registerInput(email string) services.RegisterInput {
	return services.RegisterInput{
		Email:        email,
		Password:     "secret123",
		UserName:     "Asha",
		City:         "Pune",
		PostalCode:   "411001",
		AddressLine1: "14 MG Road",
		PhoneNumber:  "+919876543210",
	}
}

func TestRegisterHashesPasswordAndIssuesToken(t *testing.T) {
	store := newFakeIdentityStore()
	svc := services.NewAuthService(store)

	registered, token, err := svc.Register(context.Background(), registerInput("asha@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.Equal(t, models.RoleUser, registered.Role, "role defaults to user")
	require.NotEqual(t, "secret123", registered.Password, "password must never be stored in clear")
	require.True(t, auth.CheckPassword(registered.Password, "secret123"))

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, registered.ID.Hex(), claims.UserID)
	require.Equal(t, models.RoleUser, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeIdentityStore()
	svc := services.NewAuthService(store)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerInput("asha@example.com"))
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, registerInput("asha@example.com"))
	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindConflict, svcErr.Kind)
	require.Equal(t, "emailAlreadyExists", svcErr.Key)
}

func TestLogin(t *testing.T) {
	store := newFakeIdentityStore()
	svc := services.NewAuthService(store)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, registerInput("asha@example.com"))
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "secret123")
		require.Equal(t, "emailDoesNotExist", asServiceError(t, err).Key)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "asha@example.com", "wrong")
		svcErr := asServiceError(t, err)
		require.Equal(t, services.KindUnauthorized, svcErr.Kind)
		require.Equal(t, "incorrectPassword", svcErr.Key)
	})

	t.Run("success", func(t *testing.T) {
		logged, token, err := svc.Login(ctx, "asha@example.com", "secret123")
		require.NoError(t, err)
		require.Equal(t, registered.ID, logged.ID)

		claims, err := auth.ValidateToken(token)
		require.NoError(t, err)
		require.Equal(t, registered.ID.Hex(), claims.UserID)
	})
}

func TestUpdateProfile(t *testing.T) {
	store := newFakeIdentityStore()
	svc := services.NewAuthService(store)
	ctx := context.Background()

	asha, _, err := svc.Register(ctx, registerInput("asha@example.com"))
	require.NoError(t, err)
	ravi, _, err := svc.Register(ctx, registerInput("ravi@example.com"))
	require.NoError(t, err)

	t.Run("email taken by someone else", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, asha.ID, services.UpdateProfileInput{Email: "ravi@example.com"})
		require.Equal(t, "emailAlreadyExists", asServiceError(t, err).Key)
	})

	t.Run("keeping own email is allowed", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, asha.ID, services.UpdateProfileInput{
			Email: "asha@example.com",
			City:  "Nashik",
		})
		require.NoError(t, err)
		require.Equal(t, "Nashik", updated.City)
		require.Equal(t, "asha@example.com", updated.Email)
	})

	t.Run("empty fields leave values untouched", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, ravi.ID, services.UpdateProfileInput{UserName: "Ravi K"})
		require.NoError(t, err)
		require.Equal(t, "Ravi K", updated.UserName)
		require.Equal(t, "ravi@example.com", updated.Email)
		require.Equal(t, "Pune", updated.City)
	})

	t.Run("password change is rehashed", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, ravi.ID, services.UpdateProfileInput{Password: "newsecret"})
		require.NoError(t, err)
		require.True(t, auth.CheckPassword(updated.Password, "newsecret"))
		require.False(t, auth.CheckPassword(updated.Password, "secret123"))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, primitive.NewObjectID(), services.UpdateProfileInput{City: "Goa"})
		require.Equal(t, "userNotFound", asServiceError(t, err).Key)
	})
}
