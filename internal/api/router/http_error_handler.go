package router

import (
	"net/http"

	"github/chapool/go-sweeper/internal/api/httperrors"
	"github/chapool/go-sweeper/internal/types"
	"github/chapool/go-sweeper/internal/util"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// HTTPErrorHandler renders every error as types.PublicHTTPError.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		httpError *httperrors.HTTPError
		echoError *echo.HTTPError
	)

	switch {
	case errors.As(err, &httpError):
	case errors.As(err, &echoError):
		title := http.StatusText(echoError.Code)
		detail := ""
		if msg, ok := echoError.Message.(string); ok && msg != title {
			detail = msg
		}
		httpError = httperrors.NewHTTPErrorWithDetail(echoError.Code, types.PublicHTTPErrorTypeGeneric, title, detail)
	default:
		util.LogFromContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error in handler")
		httpError = httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
	}

	code := int(*httpError.Code)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, httpError.PublicHTTPError)
	}

	if writeErr != nil {
		util.LogFromContext(c.Request().Context()).Error().Err(writeErr).Msg("Failed to write error response")
	}
}
