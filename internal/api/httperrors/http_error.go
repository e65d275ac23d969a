package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/util"
	"github/chapool/wallet-txengine/internal/wallet"
)

const (
	TypeGeneric  = "generic"
	TypeNotFound = "notFound"
)

// HTTPError is the JSON body of every error response.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errorType,
		Title: title,
	}
}

func NewFromEcho(e *echo.HTTPError) *HTTPError {
	return NewHTTPError(e.Code, TypeGeneric, http.StatusText(e.Code))
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	}

	return fmt.Sprintf("HTTPError %d (%s): %s - %s", e.Code, e.Type, e.Title, e.Detail)
}

// WithDetail returns a copy of e carrying detail.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	c := *e
	c.Detail = detail

	return &c
}

// HTTPErrorHandler renders err as HTTPError JSON. Unknown errors become a 500 without detail.
func HTTPErrorHandler(err error, c echo.Context) {
	var (
		httpErr *HTTPError
		echoErr *echo.HTTPError
	)

	switch {
	case errors.As(err, &httpErr):
	case errors.As(err, &echoErr):
		httpErr = NewFromEcho(echoErr)
	case errors.Is(err, wallet.ErrNotFound):
		httpErr = NewHTTPError(http.StatusNotFound, TypeNotFound, http.StatusText(http.StatusNotFound))
	default:
		util.LogFromContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error in request")
		httpErr = NewHTTPError(http.StatusInternalServerError, TypeGeneric, http.StatusText(http.StatusInternalServerError))
	}

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpErr.Code)
	} else {
		err = c.JSON(httpErr.Code, httpErr)
	}
	if err != nil {
		util.LogFromContext(c.Request().Context()).Warn().Err(err).Msg("Failed to send error response")
	}
}
