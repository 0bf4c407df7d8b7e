package appwrite

import (
	"errors"
	"net/http"
)

// statusError is implemented by the SDK's AppwriteError.
type statusError interface {
	GetStatusCode() int
}

func hasStatus(err error, code int) bool {
	var apiErr statusError
	return errors.As(err, &apiErr) && apiErr.GetStatusCode() == code
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports an already existing id or unique attribute.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}
