package handler

import (
	"bytes"
	"encoding/json"

	"github.com/99minutos/user-directory/internal/core/domain"
)

const (
	statusSuccess      = "Success"
	statusUnsuccessful = "Unsuccessful"
)

// envelope is the response body of every directory endpoint except the user list.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// notFoundResponse is returned when required fields are missing or no route matched.
type notFoundResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// profileResponse documents an envelope carrying a user profile.
type profileResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    domain.Profile `json:"data"`
}

// --- Request types ---

type signInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Username string `json:"username"  validate:"required"`
	Email    string `json:"email"     validate:"required"`
	Password string `json:"password"  validate:"required"`
	Role     string `json:"role"      validate:"required"`
	Image    string `json:"image"`
}

type updateUserRequest struct {
	ID       objectID `json:"_id"       validate:"required" swaggertype:"string"`
	FullName string   `json:"full_name" validate:"required"`
	Email    string   `json:"email"     validate:"required"`
	Role     string   `json:"role"      validate:"required"`
	Image    string   `json:"image"`
}

type changePasswordRequest struct {
	ID       objectID `json:"_id"      validate:"required" swaggertype:"string"`
	Password string   `json:"password" validate:"required"`
}

type changeUsernameRequest struct {
	ID       objectID `json:"_id"      validate:"required" swaggertype:"string"`
	Username string   `json:"username" validate:"required"`
}

// objectID is a user identifier as sent by clients: either a plain hex string
// or the extended JSON form {"$oid": "<hex>"}.
type objectID string

func (o *objectID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = objectID(s)
		return nil
	}

	var ext struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(b, &ext); err != nil {
		return err
	}
	*o = objectID(ext.OID)
	return nil
}
