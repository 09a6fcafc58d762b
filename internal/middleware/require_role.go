package middleware

import (
	"errors"
	"net/http"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/ports/auth"
)

const LoginPath = "/auth/login"

// RequireRole: sin principal => redirect al login; rol fuera de la lista => 403.
func RequireRole(deny ErrorWriter, roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if !p.HasRole(roles...) {
				deny(w, r, http.StatusForbidden, "error.forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified revalida el principal contra el store antes de operaciones sensibles
// (usuario desactivado o rol cambiado desde el login).
func RequireVerified(verifier auth.Verifier, deny ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			fresh, err := verifier.Verify(r.Context(), p)
			if err != nil {
				if errors.Is(err, apperr.ErrForbidden) {
					deny(w, r, http.StatusForbidden, "error.forbidden")
					return
				}
				deny(w, r, http.StatusInternalServerError, "error.internal")
				return
			}
			if !fresh.CanWrite() {
				deny(w, r, http.StatusForbidden, "error.forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
