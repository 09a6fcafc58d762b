package records

import (
	"net/http"
	"strconv"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/middleware"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/form"
	"shelter-clinical-records/internal/platform/metrics"
	"shelter-clinical-records/internal/platform/view"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta bajo /vet las escrituras clínicas y la agenda de consultas.
func RegisterRoutes(r chi.Router, svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector) {
	r.Post("/animal/{id}/health-record", addHealthRecordHandler(svc, v, forms))
	r.Post("/animal/{id}/vaccine", addVaccineHandler(svc, v, forms))
	r.Post("/animal/{id}/hospitalization", admitHandler(svc, v, forms, m))
	r.Post("/animal/{id}/hospitalization/{hid}/discharge", dischargeHandler(svc, v, forms))
	r.Post("/animal/{id}/procedure", addProcedureHandler(svc, v, forms))

	r.Get("/consultas", consultationsHandler(svc, v))
}

type consultationsPage struct {
	From       string      `json:"from"`
	To         string      `json:"to"`
	Procedures []Procedure `json:"procedures"`
}

// addHealthRecordHandler godoc
// @Summary Nueva ficha de salud
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param weight formData number false "peso (kg)"
// @Param body_condition formData string false "condición corporal"
// @Param observations formData string false "observaciones"
// @Param allergies formData string false "alergias"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /vet/animal/{id}/health-record [post]
func addHealthRecordHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		weight, err := form.OptionalFloat(r, "weight")
		if err != nil {
			return err
		}
		p, _ := middleware.GetPrincipal(r.Context())
		_, err = svc.AddHealthRecord(r.Context(), p, animalID, HealthRecordInput{
			Weight:        weight,
			BodyCondition: form.String(r, "body_condition"),
			Observations:  form.String(r, "observations"),
			Allergies:     form.String(r, "allergies"),
		})
		return err
	})
}

// addVaccineHandler godoc
// @Summary Registrar vacuna
// @Description El veterinario responsable es el usuario de la sesión.
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param name formData string true "vacuna"
// @Param application_date formData string false "YYYY-MM-DD (default hoy)"
// @Param next_dose formData string false "YYYY-MM-DD"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Router /vet/animal/{id}/vaccine [post]
func addVaccineHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		applied, err := form.OptionalDate(r, "application_date")
		if err != nil {
			return err
		}
		next, err := form.OptionalDate(r, "next_dose")
		if err != nil {
			return err
		}
		p, _ := middleware.GetPrincipal(r.Context())
		_, err = svc.AddVaccine(r.Context(), p, animalID, VaccineInput{
			Name:            form.String(r, "name"),
			ApplicationDate: applied,
			NextDose:        next,
			Batch:           form.String(r, "batch"),
			Observations:    form.String(r, "observations"),
		})
		return err
	})
}

// admitHandler godoc
// @Summary Internar animal
// @Description Crea la internación y pone el animal en status hospital en una sola transacción.
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param reason formData string true "motivo"
// @Param entry_date formData string false "YYYY-MM-DD (default hoy)"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Router /vet/animal/{id}/hospitalization [post]
func admitHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		entry, err := form.OptionalDate(r, "entry_date")
		if err != nil {
			return err
		}
		p, _ := middleware.GetPrincipal(r.Context())
		_, err = svc.Admit(r.Context(), p, animalID, AdmitInput{
			EntryDate:    entry,
			Reason:       form.String(r, "reason"),
			Diagnosis:    form.String(r, "diagnosis"),
			Treatment:    form.String(r, "treatment"),
			Procedures:   form.String(r, "procedures"),
			Observations: form.String(r, "observations"),
		})
		if err == nil {
			m.Hospitalizations.Inc()
		}
		return err
	})
}

// dischargeHandler godoc
// @Summary Alta de internación
// @Description Registra fecha y estado de salida. No cambia el status del animal.
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param hid path int true "internación"
// @Param exit_status formData string true "estado de salida"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Router /vet/animal/{id}/hospitalization/{hid}/discharge [post]
func dischargeHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		hid, ok := animals.PathID(r, "hid")
		if !ok {
			return apperr.ErrNotFound
		}
		exit, err := form.OptionalDate(r, "exit_date")
		if err != nil {
			return err
		}
		_, err = svc.Discharge(r.Context(), animalID, hid, DischargeInput{
			ExitDate:     exit,
			ExitStatus:   form.String(r, "exit_status"),
			Observations: form.String(r, "observations"),
		})
		return err
	})
}

// addProcedureHandler godoc
// @Summary Registrar procedimiento
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param name formData string true "procedimiento"
// @Param procedure_date formData string false "YYYY-MM-DD (default hoy)"
// @Success 303 "redirect a la ficha"
// @Router /vet/animal/{id}/procedure [post]
func addProcedureHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		date, err := form.OptionalDate(r, "procedure_date")
		if err != nil {
			return err
		}
		p, _ := middleware.GetPrincipal(r.Context())
		_, err = svc.AddProcedure(r.Context(), p, animalID, ProcedureInput{
			Name:         form.String(r, "name"),
			Date:         date,
			Description:  form.String(r, "description"),
			Observations: form.String(r, "observations"),
		})
		return err
	})
}

// consultationsHandler godoc
// @Summary Agenda de consultas
// @Description Procedimientos de todos los animales en el rango, más recientes primero.
// @Tags vet
// @Produce json
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} consultationsPage
// @Router /vet/consultas [get]
func consultationsHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := consultationsPage{
			From:       form.String(r, "from"),
			To:         form.String(r, "to"),
			Procedures: []Procedure{},
		}

		from, err := form.OptionalDate(r, "from")
		if err != nil {
			v.Form(w, r, http.StatusBadRequest, "vet/consultations", page, err)
			return
		}
		to, err := form.OptionalDate(r, "to")
		if err != nil {
			v.Form(w, r, http.StatusBadRequest, "vet/consultations", page, err)
			return
		}

		items, err := svc.Consultations(r.Context(), ProcedureFilter{From: from, To: to})
		if err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				v.Form(w, r, http.StatusBadRequest, "vet/consultations", page, err)
				return
			}
			v.Fail(w, r, err)
			return
		}
		page.Procedures = items
		v.Render(w, r, http.StatusOK, "vet/consultations", page)
	}
}

// withAnimal resuelve el {id}, parsea el form y aplica la política común de respuesta:
// validación => ficha con error (400); éxito => 303 a la ficha.
func withAnimal(v *view.Renderer, forms view.AnimalFormRenderer, fn func(r *http.Request, animalID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animalID, ok := animals.PathID(r, "id")
		if !ok {
			v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		if err := form.Parse(r); err != nil {
			v.Error(w, r, http.StatusBadRequest, "error.bad_request")
			return
		}

		if err := fn(r, animalID); err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				forms.AnimalForm(w, r, animalID, err)
				return
			}
			v.Fail(w, r, err)
			return
		}
		v.Redirect(w, r, "/vet/animal/"+strconv.FormatInt(animalID, 10))
	}
}
