// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"net/url"
)

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper.
func NewHTTPHelper() *HTTPHelper {
	return &HTTPHelper{userAgent: "deathmap-normalizer/1.0"}
}

// IsValidURL reports whether raw is an absolute http(s) URL with a host.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildHeaders creates HTTP headers with defaults. A non-empty appToken is
// sent as the Socrata X-App-Token header.
func (h *HTTPHelper) BuildHeaders(appToken string, customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "application/json, text/csv;q=0.9, */*;q=0.1")

	if appToken != "" {
		headers.Set("X-App-Token", appToken)
	}

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
