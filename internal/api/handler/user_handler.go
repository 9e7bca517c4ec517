package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-directory/internal/api/metrics"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	directory ports.DirectoryService
}

func NewUserHandler(directory ports.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// List handles GET /user. The body is a bare JSON array of profiles.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.Profile
// @Failure      503  {object}  envelope
// @Router       /user [get]
func (h *UserHandler) List(c echo.Context) error {
	const op = "list"
	profiles, err := h.directory.ListAll(c.Request().Context())
	if err != nil {
		return reply(c, op, 0, nil, err)
	}
	metrics.Observe(op, nil)
	return c.JSON(http.StatusOK, profiles)
}

// Get handles GET /user/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  profileResponse
// @Failure      503  {object}  envelope
// @Router       /user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	profile, err := h.directory.GetByID(c.Request().Context(), c.Param("id"))
	return reply(c, "get", http.StatusOK, profile, err)
}

// Delete handles DELETE /user/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      202  {object}  envelope
// @Failure      404  {object}  notFoundResponse
// @Failure      503  {object}  envelope
// @Router       /user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	conf, err := h.directory.Delete(c.Request().Context(), c.Param("id"))
	return reply(c, "delete", http.StatusAccepted, message(conf), err)
}

// Update handles PUT /user.
//
// @Summary      Update a user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Profile fields"
// @Success      201   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      404   {object}  notFoundResponse
// @Failure      503   {object}  envelope
// @Router       /user [put]
func (h *UserHandler) Update(c echo.Context) error {
	const op = "update"
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return rejectRequest(c, op, err)
	}

	conf, err := h.directory.Update(c.Request().Context(), ports.UpdateInput{
		ID:       string(req.ID),
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		Image:    req.Image,
	})
	return reply(c, op, http.StatusCreated, message(conf), err)
}

// ChangePassword handles PUT /user/change/password.
//
// @Summary      Change a user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "User id and new password"
// @Success      201   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      404   {object}  notFoundResponse
// @Failure      503   {object}  envelope
// @Router       /user/change/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	const op = "change_password"
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return rejectRequest(c, op, err)
	}

	conf, err := h.directory.ChangePassword(c.Request().Context(), string(req.ID), req.Password)
	return reply(c, op, http.StatusCreated, message(conf), err)
}

// ChangeUsername handles PUT /user/change/username.
//
// @Summary      Change a user's username
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      changeUsernameRequest  true  "User id and new username"
// @Success      201   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      404   {object}  notFoundResponse
// @Failure      503   {object}  envelope
// @Router       /user/change/username [put]
func (h *UserHandler) ChangeUsername(c echo.Context) error {
	const op = "change_username"
	var req changeUsernameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return rejectRequest(c, op, err)
	}

	conf, err := h.directory.ChangeUsername(c.Request().Context(), string(req.ID), req.Username)
	return reply(c, op, http.StatusCreated, message(conf), err)
}
