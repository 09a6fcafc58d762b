package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"shelter-clinical-records/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover es el fallback de nivel superior: loguea el detalle y responde un 500 genérico.
func Recover(log logger.Logger, deny ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", map[string]any{
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
					"request_id": chimw.GetReqID(r.Context()),
					"path":       r.URL.Path,
				})
				deny(w, r, http.StatusInternalServerError, "error.internal")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
