package httperrors

import (
	"net/http"
)

var (
	ErrBadRequestInvalidState = NewHTTPError(http.StatusBadRequest, "invalidState", "Unknown transaction state.")
	ErrBadRequestInvalidChain = NewHTTPError(http.StatusBadRequest, "invalidChain", "Unknown chain.")
	ErrBadRequestInvalidLimit = NewHTTPError(http.StatusBadRequest, "invalidLimit", "Limit must be a positive integer.")
	ErrNotFoundTransaction    = NewHTTPError(http.StatusNotFound, TypeNotFound, "Transaction not found.")
)
