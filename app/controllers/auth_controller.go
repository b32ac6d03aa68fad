package controllers

import (
	"net/http"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/bind"
	"github.com/rajatverma/kirana/pkg/i18n"
	"github.com/rajatverma/kirana/pkg/response"
)

// AuthController exposes registration, login and profile endpoints.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type loginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authPayload struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

// Register handles POST /auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.auth.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}

	response.Created(w, i18n.T(r.Context(), "userRegisteredSuccessfully"), authPayload{
		User:  user.Profile(),
		Token: token,
	})
}

// Login handles POST /auth/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	response.SuccessMessage(w, i18n.T(r.Context(), "loginSuccessful"), authPayload{
		User:  user.Profile(),
		Token: token,
	})
}

// Profile handles GET /auth/profile.
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := c.auth.Profile(r.Context(), caller.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, user.Profile())
}

// UpdateProfile handles PUT /auth/profile.
func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var in services.UpdateProfileInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.auth.UpdateProfile(r.Context(), caller.ID, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.SuccessMessage(w, i18n.T(r.Context(), "profileUpdatedSuccessfully"), user.Profile())
}
