package httputil

import (
	"net/http"
	"strconv"
)

// QueryParam returns a query string parameter or a default value
func QueryParam(r *http.Request, name, defaultValue string) string {
	if value := r.URL.Query().Get(name); value != "" {
		return value
	}
	return defaultValue
}

// QueryParamInt returns an integer query string parameter or a default
// value. Unparseable values fall back to the default rather than erroring,
// matching lenient pagination-style parameters.
func QueryParamInt(r *http.Request, name string, defaultValue int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
