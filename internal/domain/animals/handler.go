package animals

import (
	"errors"
	"net/http"
	"strconv"

	"shelter-clinical-records/internal/middleware"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/form"
	"shelter-clinical-records/internal/platform/metrics"
	"shelter-clinical-records/internal/platform/view"

	"github.com/go-chi/chi/v5"
)

// RegisterVetRoutes monta las rutas de escritura bajo /vet. sensitive revalida el
// principal contra el store (lo usa el borrado).
func RegisterVetRoutes(r chi.Router, svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector, sensitive func(http.Handler) http.Handler) {
	r.Get("/dashboard", vetDashboardHandler(svc, v))
	r.Get("/search", searchHandler(svc, v))

	r.Get("/animal/new", newAnimalFormHandler(v))
	r.Post("/animal", createAnimalHandler(svc, v, m))
	r.Post("/animal/{id}/edit", updateAnimalHandler(svc, v, forms))
	r.With(sensitive).Post("/animal/{id}/delete", deleteAnimalHandler(svc, v))
	r.Get("/animal/{id}/avatar", avatarHandler(svc, v))
}

// RegisterViewerRoutes monta las rutas de lectura bajo /user.
func RegisterViewerRoutes(r chi.Router, svc *Service, v *view.Renderer) {
	r.Get("/dashboard", viewerDashboardHandler(svc, v))
	r.Get("/animal/{id}/avatar", avatarHandler(svc, v))
}

type dashboardPage struct {
	Animals []Summary `json:"animals"`
}

type formPage struct {
	Statuses []Status          `json:"statuses"`
	Sexes    []Sex             `json:"sexes"`
	Values   map[string]string `json:"values,omitempty"`
}

type searchPage struct {
	Query    string   `json:"q"`
	Species  string   `json:"species"`
	Status   Status   `json:"status"`
	Statuses []Status `json:"statuses"`
	Results  []Animal `json:"results"`
}

// vetDashboardHandler godoc
// @Summary Dashboard veterinario
// @Description Animales a cargo (no adoptados ni fallecidos) con conteo de registros y vacunas.
// @Tags vet
// @Produce json
// @Success 200 {object} dashboardPage
// @Router /vet/dashboard [get]
func vetDashboardHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Dashboard(r.Context())
		if err != nil {
			v.Fail(w, r, err)
			return
		}
		v.Render(w, r, http.StatusOK, "vet/dashboard", dashboardPage{Animals: items})
	}
}

// viewerDashboardHandler godoc
// @Summary Dashboard de lectura
// @Tags user
// @Produce json
// @Success 200 {object} dashboardPage
// @Router /user/dashboard [get]
func viewerDashboardHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Dashboard(r.Context())
		if err != nil {
			v.Fail(w, r, err)
			return
		}
		v.Render(w, r, http.StatusOK, "user/dashboard", dashboardPage{Animals: items})
	}
}

// searchHandler godoc
// @Summary Buscar animales
// @Description Nombre (substring, sin distinguir mayúsculas), especie y status exactos. Más recientes primero.
// @Tags vet
// @Produce json
// @Param q query string false "nombre"
// @Param species query string false "especie"
// @Param status query string false "status"
// @Success 200 {object} searchPage
// @Router /vet/search [get]
func searchHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := SearchFilter{
			Query:   q.Get("q"),
			Species: q.Get("species"),
			Status:  Status(q.Get("status")),
		}
		page := searchPage{Query: f.Query, Species: f.Species, Status: f.Status, Statuses: Statuses}

		items, err := svc.Search(r.Context(), f)
		if err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				page.Results = []Animal{}
				v.Form(w, r, http.StatusBadRequest, "vet/search", page, err)
				return
			}
			v.Fail(w, r, err)
			return
		}
		page.Results = items
		v.Render(w, r, http.StatusOK, "vet/search", page)
	}
}

func newAnimalFormHandler(v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusOK, "vet/animal_new", formPage{Statuses: Statuses, Sexes: Sexes})
	}
}

// createAnimalHandler godoc
// @Summary Registrar animal
// @Tags vet
// @Accept x-www-form-urlencoded,mpfd
// @Param name formData string true "nombre"
// @Param species formData string true "especie"
// @Param status formData string false "status (default shelter)"
// @Param photo formData file false "foto principal"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Router /vet/animal [post]
func createAnimalHandler(svc *Service, v *view.Renderer, m *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := middleware.GetPrincipal(r.Context())

		in, err := readInput(r)
		if err != nil {
			v.Form(w, r, http.StatusBadRequest, "vet/animal_new", formPage{Statuses: Statuses, Sexes: Sexes, Values: formValues(r)}, err)
			return
		}

		a, err := svc.Create(r.Context(), p, in)
		if err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				v.Form(w, r, http.StatusBadRequest, "vet/animal_new", formPage{Statuses: Statuses, Sexes: Sexes, Values: formValues(r)}, err)
				return
			}
			v.Fail(w, r, err)
			return
		}

		m.AnimalsCreated.Inc()
		v.Redirect(w, r, "/vet/animal/"+strconv.FormatInt(a.ID, 10))
	}
}

// updateAnimalHandler godoc
// @Summary Editar animal
// @Description Reemplaza los campos editables, incluido el status (alta manual).
// @Tags vet
// @Accept x-www-form-urlencoded,mpfd
// @Param id path int true "animal"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /vet/animal/{id}/edit [post]
func updateAnimalHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathID(r, "id")
		if !ok {
			v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}

		in, err := readInput(r)
		if err != nil {
			forms.AnimalForm(w, r, id, err)
			return
		}

		if _, err := svc.Update(r.Context(), id, in); err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				forms.AnimalForm(w, r, id, err)
				return
			}
			v.Fail(w, r, err)
			return
		}
		v.Redirect(w, r, "/vet/animal/"+strconv.FormatInt(id, 10))
	}
}

// deleteAnimalHandler godoc
// @Summary Borrar animal
// @Description Borra el animal y todo su historial (cascada).
// @Tags vet
// @Param id path int true "animal"
// @Success 303 "redirect al dashboard"
// @Failure 403 {object} map[string]string
// @Router /vet/animal/{id}/delete [post]
func deleteAnimalHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathID(r, "id")
		if !ok {
			v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			v.Fail(w, r, err)
			return
		}
		v.Redirect(w, r, "/vet/dashboard")
	}
}

func avatarHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathID(r, "id")
		if !ok {
			v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		photo, err := svc.Photo(r.Context(), id)
		if err != nil {
			v.Fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", photo.Mimetype)
		w.Header().Set("Content-Length", strconv.Itoa(len(photo.Data)))
		w.Header().Set("Cache-Control", "private, no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(photo.Data)
	}
}

func readInput(r *http.Request) (Input, error) {
	if err := form.Parse(r); err != nil {
		return Input{}, apperr.Invalid("", "error.bad_request")
	}

	age, err := form.OptionalInt(r, "age")
	if err != nil {
		return Input{}, err
	}
	entry, err := form.OptionalDate(r, "entry_date")
	if err != nil {
		return Input{}, err
	}

	in := Input{
		Name:            form.String(r, "name"),
		Species:         form.String(r, "species"),
		Breed:           form.String(r, "breed"),
		Age:             age,
		Sex:             Sex(form.String(r, "sex")),
		ChipID:          form.String(r, "chip_id"),
		Status:          Status(form.String(r, "status")),
		Description:     form.String(r, "description"),
		Characteristics: form.String(r, "characteristics"),
		EntryDate:       entry,
	}

	up, err := form.File(r, "photo")
	switch {
	case errors.Is(err, form.ErrNoFile):
	case err != nil:
		return Input{}, apperr.Invalid("photo", "error.bad_request")
	default:
		if !form.IsImage(up.Data) {
			return Input{}, apperr.Invalid("photo", "media.not_image")
		}
		in.Photo = &Photo{Data: up.Data, Mimetype: up.Mimetype}
	}
	return in, nil
}

func formValues(r *http.Request) map[string]string {
	out := map[string]string{}
	for _, k := range []string{"name", "species", "breed", "age", "sex", "chip_id", "status", "description", "characteristics", "entry_date"} {
		out[k] = r.FormValue(k)
	}
	return out
}

// PathID lee un parámetro de ruta numérico positivo.
func PathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
