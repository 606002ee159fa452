package util

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request and response payloads.
type Validatable interface {
	Validate() error
}

// BindAndValidateBody binds the JSON body into v and validates it. Both
// failures are answered with 400.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	if err := c.Bind(v); err != nil {
		LogFromContext(c.Request().Context()).Debug().Err(err).Msg("Failed to bind request body")
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	if err := v.Validate(); err != nil {
		LogFromContext(c.Request().Context()).Debug().Err(err).Msg("Request body is invalid")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}
