package http

import (
	"net/http"
	"strings"

	"github.com/utafrali/catalog-service/pkg/httputil"
)

// ContentTypeJSON rejects request bodies that are neither JSON nor multipart
// form data. GET and DELETE requests carry no body and pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "application/json") ||
			strings.HasPrefix(contentType, "multipart/form-data") {
			next.ServeHTTP(w, r)
			return
		}

		httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "Content-Type must be application/json or multipart/form-data",
			},
		})
	})
}
