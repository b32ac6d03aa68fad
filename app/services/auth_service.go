package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/pkg/auth"
	"github.com/rajatverma/kirana/pkg/logger"
)

// IdentityStore is the user persistence surface of the auth workflows.
type IdentityStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByEmailExcept(ctx context.Context, email string, except primitive.ObjectID) (bool, error)
	Update(ctx context.Context, user *models.User) error
}

// RegisterInput is the registration request body.
type RegisterInput struct {
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required,min=6"`
	Role         string `json:"role"         validate:"nullable,in=admin,user"`
	UserName     string `json:"userName"     validate:"required"`
	City         string `json:"city"         validate:"required"`
	PostalCode   string `json:"postalCode"   validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2" validate:"nullable"`
	PhoneNumber  string `json:"phoneNumber"  validate:"required,regex=^\\+?[0-9]{10,15}$"`
}

// UpdateProfileInput is the profile update request body. Every field is
// optional; zero values leave the stored value untouched.
type UpdateProfileInput struct {
	Email        string `json:"email"        validate:"nullable,email"`
	Password     string `json:"password"     validate:"nullable,min=6"`
	UserName     string `json:"userName"     validate:"nullable"`
	City         string `json:"city"         validate:"nullable"`
	PostalCode   string `json:"postalCode"   validate:"nullable"`
	AddressLine1 string `json:"addressLine1" validate:"nullable"`
	AddressLine2 string `json:"addressLine2" validate:"nullable"`
	PhoneNumber  string `json:"phoneNumber"  validate:"nullable,regex=^\\+?[0-9]{10,15}$"`
}

// AuthService implements registration, login and profile management.
type AuthService struct {
	users IdentityStore
}

func NewAuthService(users IdentityStore) *AuthService {
	return &AuthService{users: users}
}

// Register creates a new user with a bcrypt-hashed password and returns
// it together with a signed access token. Duplicate emails are rejected.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return models.User{}, "", newError(KindConflict, "emailAlreadyExists")
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, "", internalError(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, "", internalError(err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		UserName:     in.UserName,
		Email:        in.Email,
		Password:     hash,
		Role:         role,
		PhoneNumber:  in.PhoneNumber,
		City:         in.City,
		PostalCode:   in.PostalCode,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, "", internalError(err)
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return models.User{}, "", internalError(err)
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID.Hex(), "email", user.Email)
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token.
// An unknown email and a wrong password are reported distinctly, the
// way the storefront clients expect.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, "", newError(KindValidation, "emailDoesNotExist")
	}
	if err != nil {
		return models.User{}, "", internalError(err)
	}

	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, "", newError(KindUnauthorized, "incorrectPassword")
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return models.User{}, "", internalError(err)
	}
	return user, token, nil
}

// Profile returns the caller's own user record.
func (s *AuthService) Profile(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, newError(KindNotFound, "userNotFound")
	}
	if err != nil {
		return models.User{}, internalError(err)
	}
	return user, nil
}

// UpdateProfile applies the non-empty fields of in to the caller's
// record. Changing email enforces uniqueness excluding the caller.
func (s *AuthService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in UpdateProfileInput) (models.User, error) {
	if in.Email != "" {
		taken, err := s.users.ExistsByEmailExcept(ctx, in.Email, id)
		if err != nil {
			return models.User{}, internalError(err)
		}
		if taken {
			return models.User{}, newError(KindConflict, "emailAlreadyExists")
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, newError(KindNotFound, "userNotFound")
	}
	if err != nil {
		return models.User{}, internalError(err)
	}

	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Password != "" {
		hash, herr := auth.HashPassword(in.Password)
		if herr != nil {
			return models.User{}, internalError(herr)
		}
		user.Password = hash
	}
	if in.UserName != "" {
		user.UserName = in.UserName
	}
	if in.City != "" {
		user.City = in.City
	}
	if in.PostalCode != "" {
		user.PostalCode = in.PostalCode
	}
	if in.AddressLine1 != "" {
		user.AddressLine1 = in.AddressLine1
	}
	if in.AddressLine2 != "" {
		user.AddressLine2 = in.AddressLine2
	}
	if in.PhoneNumber != "" {
		user.PhoneNumber = in.PhoneNumber
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return models.User{}, internalError(err)
	}
	return user, nil
}
