package chart

import (
	"net/http"
	"strings"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/domain/pharmacy"
	"shelter-clinical-records/internal/middleware"
	"shelter-clinical-records/internal/platform/view"

	"github.com/go-chi/chi/v5"
)

// Pages pinta las fichas. Implementa view.AnimalFormRenderer para que los handlers de
// escritura vuelvan a la ficha con el error del formulario.
type Pages struct {
	svc *Service
	v   *view.Renderer
}

func NewPages(svc *Service, v *view.Renderer) *Pages {
	return &Pages{svc: svc, v: v}
}

// RegisterVetRoutes monta bajo /vet.
func (p *Pages) RegisterVetRoutes(r chi.Router) {
	r.Get("/animal/{id}", p.vetChartHandler())
	r.Get("/animal/{id}/historico", p.historyHandler())
	r.Get("/meus-registros", p.authoredHandler())
	r.Get("/relatorios", p.reportHandler())
}

// RegisterViewerRoutes monta bajo /user.
func (p *Pages) RegisterViewerRoutes(r chi.Router) {
	r.Get("/animal/{id}", p.viewerChartHandler())
}

type vetChartPage struct {
	VetChart
	Statuses   []animals.Status  `json:"statuses"`
	Sexes      []animals.Sex     `json:"sexes"`
	RxStatuses []pharmacy.Status `json:"prescription_statuses"`
}

type authoredPage struct {
	Kinds   []EntryKind `json:"kinds"`
	Entries Authored    `json:"entries"`
}

func newVetChartPage(c VetChart) vetChartPage {
	return vetChartPage{
		VetChart:   c,
		Statuses:   animals.Statuses,
		Sexes:      animals.Sexes,
		RxStatuses: pharmacy.Statuses,
	}
}

// AnimalForm vuelve a pintar la ficha (vet o user según la ruta) con status 400.
func (p *Pages) AnimalForm(w http.ResponseWriter, r *http.Request, animalID int64, err error) {
	if strings.HasPrefix(r.URL.Path, "/user/") {
		c, lerr := p.svc.ViewerChart(r.Context(), animalID)
		if lerr != nil {
			p.v.Fail(w, r, lerr)
			return
		}
		p.v.Form(w, r, http.StatusBadRequest, "user/animal", c, err)
		return
	}

	c, lerr := p.svc.VetChart(r.Context(), animalID)
	if lerr != nil {
		p.v.Fail(w, r, lerr)
		return
	}
	p.v.Form(w, r, http.StatusBadRequest, "vet/animal", newVetChartPage(c), err)
}

// vetChartHandler godoc
// @Summary Ficha clínica
// @Description Animal, ficha de salud actual, vacunas, internaciones, procedimientos, recetas, documentos y fotos.
// @Tags vet
// @Produce json
// @Param id path int true "animal"
// @Success 200 {object} vetChartPage
// @Failure 404 {object} map[string]string
// @Router /vet/animal/{id} [get]
func (p *Pages) vetChartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := animals.PathID(r, "id")
		if !ok {
			p.v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		c, err := p.svc.VetChart(r.Context(), id)
		if err != nil {
			p.v.Fail(w, r, err)
			return
		}
		p.v.Render(w, r, http.StatusOK, "vet/animal", newVetChartPage(c))
	}
}

// historyHandler godoc
// @Summary Historial completo
// @Tags vet
// @Produce json
// @Param id path int true "animal"
// @Success 200 {object} vetChartPage
// @Router /vet/animal/{id}/historico [get]
func (p *Pages) historyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := animals.PathID(r, "id")
		if !ok {
			p.v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		c, err := p.svc.History(r.Context(), id)
		if err != nil {
			p.v.Fail(w, r, err)
			return
		}
		p.v.Render(w, r, http.StatusOK, "vet/history", newVetChartPage(c))
	}
}

// viewerChartHandler godoc
// @Summary Ficha de lectura
// @Tags user
// @Produce json
// @Param id path int true "animal"
// @Success 200 {object} ViewerChart
// @Router /user/animal/{id} [get]
func (p *Pages) viewerChartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := animals.PathID(r, "id")
		if !ok {
			p.v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		c, err := p.svc.ViewerChart(r.Context(), id)
		if err != nil {
			p.v.Fail(w, r, err)
			return
		}
		p.v.Render(w, r, http.StatusOK, "user/animal", c)
	}
}

// authoredHandler godoc
// @Summary Mis registros
// @Description Lo firmado por el usuario actual, agrupado por tipo.
// @Tags vet
// @Produce json
// @Success 200 {object} authoredPage
// @Router /vet/meus-registros [get]
func (p *Pages) authoredHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.GetPrincipal(r.Context())
		entries, err := p.svc.Authored(r.Context(), principal.ID)
		if err != nil {
			p.v.Fail(w, r, err)
			return
		}
		p.v.Render(w, r, http.StatusOK, "vet/my_records", authoredPage{Kinds: EntryKinds, Entries: entries})
	}
}

// reportHandler godoc
// @Summary Reportes
// @Tags vet
// @Produce json
// @Success 200 {object} Report
// @Router /vet/relatorios [get]
func (p *Pages) reportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := p.svc.Report(r.Context())
		if err != nil {
			p.v.Fail(w, r, err)
			return
		}
		p.v.Render(w, r, http.StatusOK, "vet/reports", rep)
	}
}
