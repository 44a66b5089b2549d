package middleware

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// responseHeaders are set on every response. The board only serves JSON,
// so the content policy forbids loading anything.
var responseHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Referrer-Policy":           "no-referrer",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Cache-Control":             "no-store",
}

// SecurityHeaders adds security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, value := range responseHeaders {
			w.Header().Set(name, value)
		}
		next.ServeHTTP(w, r)
	})
}

// MaxBodySize rejects declared bodies over maxBytes and caps streamed ones.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateRequest enforces JSON request bodies and screens the query string.
//
// The path is not screened: dynamic segments are message ids, which must
// round-trip exactly as they were stored.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) && !isJSON(r.Header.Get("Content-Type")) {
			writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
			return
		}

		if containsSuspiciousPatterns(r.URL.RawQuery) {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// hasBody reports whether a write request declares a non-empty body.
// Chunked bodies report ContentLength -1.
func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

var suspiciousPatterns = []string{
	"<script",
	"javascript:",
	"vbscript:",
	"onload=",
	"onerror=",
}

// containsSuspiciousPatterns checks raw and decoded input for script injection.
func containsSuspiciousPatterns(input string) bool {
	if input == "" {
		return false
	}

	candidates := []string{strings.ToLower(input)}
	if decoded, err := url.QueryUnescape(input); err == nil {
		candidates = append(candidates, strings.ToLower(decoded))
	}

	for _, candidate := range candidates {
		for _, s := range suspiciousPatterns {
			if strings.Contains(candidate, s) {
				return true
			}
		}
	}
	return false
}
