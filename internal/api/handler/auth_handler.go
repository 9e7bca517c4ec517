package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

type AuthHandler struct {
	directory ports.DirectoryService
}

func NewAuthHandler(directory ports.DirectoryService) *AuthHandler {
	return &AuthHandler{directory: directory}
}

// SignIn checks a username and password.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  envelope
// @Failure      404   {object}  notFoundResponse
// @Failure      503   {object}  envelope
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	const op = "authenticate"
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return rejectRequest(c, op, err)
	}

	profile, err := h.directory.Authenticate(c.Request().Context(), req.Username, req.Password)
	return reply(c, op, http.StatusOK, profile, err)
}

// SignUp registers a new user.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "User registration details"
// @Success      201   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      404   {object}  notFoundResponse
// @Failure      503   {object}  envelope
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	const op = "register"
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return rejectRequest(c, op, err)
	}

	conf, err := h.directory.Register(c.Request().Context(), ports.RegisterInput{
		FullName: req.FullName,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Image:    req.Image,
	})
	return reply(c, op, http.StatusCreated, message(conf), err)
}

// rejectRequest handles a body that failed to bind or validate.
func rejectRequest(c echo.Context, op string, err error) error {
	if errors.Is(err, domain.ErrMissingFields) {
		return reply(c, op, 0, nil, err)
	}
	return err
}

func message(conf *ports.Confirmation) any {
	if conf == nil {
		return nil
	}
	return conf.Message
}
