package users

import (
	"errors"
	"net/http"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/form"
	"shelter-clinical-records/internal/platform/logger"
	"shelter-clinical-records/internal/platform/metrics"
	"shelter-clinical-records/internal/platform/session"
	"shelter-clinical-records/internal/platform/view"
	"shelter-clinical-records/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /auth. limit se aplica a los POST de login y registro.
func RegisterRoutes(r chi.Router, svc *Service, sessions *session.Manager, v *view.Renderer, m *metrics.Collector, log logger.Logger, limit func(http.Handler) http.Handler) {
	r.Get("/login", loginFormHandler(v))
	r.With(limit).Post("/login", loginHandler(svc, sessions, v, m, log))

	r.Get("/register", registerFormHandler(v))
	r.With(limit).Post("/register", registerHandler(svc, v))

	r.Get("/logout", logoutHandler(sessions, v))
	r.Post("/logout", logoutHandler(sessions, v))
}

type loginPage struct {
	Email string `json:"email"`
}

type registerPage struct {
	Roles  []auth.Role       `json:"roles"`
	Values map[string]string `json:"values,omitempty"`
}

var selfRegistrable = []auth.Role{auth.RoleVeterinary, auth.RoleViewer}

// HomePath es el dashboard de cada rol.
func HomePath(p auth.Principal) string {
	if p.CanWrite() {
		return "/vet/dashboard"
	}
	return "/user/dashboard"
}

func loginFormHandler(v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusOK, "auth/login", loginPage{})
	}
}

// loginHandler godoc
// @Summary Login
// @Description Valida credenciales, rota la sesión y redirige al dashboard del rol.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param email formData string true "email"
// @Param password formData string true "password"
// @Success 303 "redirect al dashboard"
// @Failure 401 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /auth/login [post]
func loginHandler(svc *Service, sessions *session.Manager, v *view.Renderer, m *metrics.Collector, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form.Parse(r); err != nil {
			v.Error(w, r, http.StatusBadRequest, "error.bad_request")
			return
		}
		email := form.String(r, "email")

		p, err := svc.Authenticate(r.Context(), email, r.FormValue("password"))
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				m.LoginAttempts.WithLabelValues("failure").Inc()
				v.Form(w, r, http.StatusUnauthorized, "auth/login", loginPage{Email: email}, view.MessageError("auth.invalid_credentials"))
				return
			}
			v.Fail(w, r, err)
			return
		}

		if err := sessions.Login(w, r, p); err != nil {
			v.Fail(w, r, err)
			return
		}
		m.LoginAttempts.WithLabelValues("success").Inc()
		log.Info("login", map[string]any{"user_id": p.ID, "role": string(p.Role)})
		v.Redirect(w, r, HomePath(p))
	}
}

func registerFormHandler(v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusOK, "auth/register", registerPage{Roles: selfRegistrable})
	}
}

// registerHandler godoc
// @Summary Registro
// @Description Alta de cuenta veterinary o viewer. El rol admin no se autoasigna.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param name formData string true "nombre"
// @Param email formData string true "email"
// @Param password formData string true "mínimo 8 caracteres"
// @Param role formData string true "veterinary | viewer"
// @Success 303 "redirect al login"
// @Failure 400 {object} map[string]string
// @Router /auth/register [post]
func registerHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form.Parse(r); err != nil {
			v.Error(w, r, http.StatusBadRequest, "error.bad_request")
			return
		}
		page := registerPage{
			Roles: selfRegistrable,
			Values: map[string]string{
				"name":  r.FormValue("name"),
				"email": r.FormValue("email"),
				"role":  r.FormValue("role"),
			},
		}

		_, err := svc.Register(r.Context(), RegisterInput{
			Name:     form.String(r, "name"),
			Email:    form.String(r, "email"),
			Password: r.FormValue("password"),
			Role:     auth.Role(form.String(r, "role")),
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrDuplicateEmail):
				v.Form(w, r, http.StatusBadRequest, "auth/register", page, &apperr.ValidationError{Field: "email", MessageID: "auth.duplicate_email"})
			case isValidation(err):
				v.Form(w, r, http.StatusBadRequest, "auth/register", page, err)
			default:
				v.Fail(w, r, err)
			}
			return
		}
		v.Redirect(w, r, "/auth/login")
	}
}

// logoutHandler godoc
// @Summary Logout
// @Tags auth
// @Success 303 "redirect al login"
// @Router /auth/logout [get]
// @Router /auth/logout [post]
func logoutHandler(sessions *session.Manager, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Destroy(w, r); err != nil {
			v.Fail(w, r, err)
			return
		}
		v.Redirect(w, r, "/auth/login")
	}
}

func isValidation(err error) bool {
	_, ok := apperr.AsValidation(err)
	return ok
}
