package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-directory/internal/api/metrics"
	"github.com/99minutos/user-directory/internal/core/domain"
)

// reply records the outcome of op and writes it to the client.
//
//   - success: status with the payload in the envelope
//   - missing fields: 404 not-found body
//   - other rule violations: 200 "Unsuccessful" with the reason message
//
// Hard failures are returned for the HTTP error handler to render.
func reply(c echo.Context, op string, status int, data any, err error) error {
	metrics.Observe(op, err)

	switch {
	case err == nil:
		return c.JSON(status, envelope{Code: status, Message: statusSuccess, Data: data})
	case errors.Is(err, domain.ErrMissingFields):
		return NotFound(c)
	case domain.IsRuleViolation(err):
		return Unsuccessful(c, http.StatusOK, err.Error())
	default:
		return err
	}
}

// bindAndValidate decodes the JSON body into req and checks its required fields.
// A malformed body yields 400; a missing field is reported as ErrMissingFields.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid Payload").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return domain.ErrMissingFields
		}
		return err
	}
	return nil
}

// Unsuccessful writes an "Unsuccessful" envelope with status as both the
// HTTP status and the body code.
func Unsuccessful(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Code: status, Message: statusUnsuccessful, Data: data})
}

// NotFound writes the not-found body carrying the full request URL.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, notFoundResponse{
		Code:    http.StatusNotFound,
		Message: statusUnsuccessful,
		URL:     "Not Found: " + requestURL(c),
	})
}

func requestURL(c echo.Context) string {
	req := c.Request()
	return c.Scheme() + "://" + req.Host + req.URL.RequestURI()
}
