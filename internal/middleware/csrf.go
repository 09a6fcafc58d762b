package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"shelter-clinical-records/internal/platform/session"
)

const (
	CSRFHeader = "X-CSRF-Token"
	CSRFField  = "_csrf"
)

// CSRF implementa el synchronizer token: en requests seguros asegura que la sesión
// tenga token y lo expone en el header; en el resto exige que coincida.
func CSRF(sessions *session.Manager, deny ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				tok, err := sessions.EnsureCSRFToken(w, r)
				if err != nil {
					deny(w, r, http.StatusInternalServerError, "error.internal")
					return
				}
				w.Header().Set(CSRFHeader, tok)
				next.ServeHTTP(w, r)
				return
			}

			expected := session.FromContext(r.Context()).CSRFToken()
			got := r.Header.Get(CSRFHeader)
			if got == "" {
				// Un body cortado por BodyLimit es 413, no un token faltante.
				var tooLarge *http.MaxBytesError
				if err := parseForm(r); errors.As(err, &tooLarge) {
					deny(w, r, http.StatusRequestEntityTooLarge, "error.too_large")
					return
				}
				got = r.PostFormValue(CSRFField)
			}
			if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
				deny(w, r, http.StatusForbidden, "error.csrf")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// formMemory es el mismo límite en memoria que usa net/http por defecto.
const formMemory = 32 << 20

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(formMemory)
	}
	return r.ParseForm()
}
