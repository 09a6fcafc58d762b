package middleware

import (
	"context"
	"net/http"

	"shelter-clinical-records/internal/platform/session"
	"shelter-clinical-records/internal/ports/auth"
)

type ctxKey string

const principalKey ctxKey = "principal"

// ErrorWriter pinta una respuesta de error con un mensaje traducible (view.Renderer.Error).
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, messageID string)

// AuthContext copia el principal de la sesión al contexto. Sin sesión o sin login el
// request sigue igual; RequireRole decide.
func AuthContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := session.FromContext(r.Context()).Principal()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// WithPrincipal es para tests de handlers sin sesión real.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
