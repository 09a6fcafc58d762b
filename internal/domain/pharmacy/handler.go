package pharmacy

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

// RegisterRoutes monta bajo /vet las recetas y el inventario de medicamentos.
func RegisterRoutes(r chi.Router, svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector) {
	r.Post("/animal/{id}/receita", prescribeHandler(svc, v, forms, m))
	r.Post("/animal/{id}/receita/{rxID}/status", prescriptionStatusHandler(svc, v, forms))

	r.Get("/medicamentos", medicationsHandler(svc, v))
	r.Post("/medicamentos", setStockHandler(svc, v))
}

type medicationsPage struct {
	Medications []Medication      `json:"medications"`
	Values      map[string]string `json:"values,omitempty"`
}

// prescribeHandler godoc
// @Summary Emitir receta
// @Description Busca el medicamento por nombre sin distinguir mayúsculas y lo crea si no existe.
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param medication formData string true "medicamento"
// @Param dosage formData string true "dosis"
// @Param frequency formData string false "frecuencia"
// @Param start_date formData string false "YYYY-MM-DD (default hoy)"
// @Param end_date formData string false "YYYY-MM-DD"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Router /vet/animal/{id}/receita [post]
func prescribeHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		start, err := form.OptionalDate(r, "start_date")
		if err != nil {
			return err
		}
		end, err := form.OptionalDate(r, "end_date")
		if err != nil {
			return err
		}
		p, _ := middleware.GetPrincipal(r.Context())
		_, _, err = svc.Prescribe(r.Context(), p, animalID, PrescribeInput{
			MedicationName: form.String(r, "medication"),
			Dosage:         form.String(r, "dosage"),
			Frequency:      form.String(r, "frequency"),
			StartDate:      start,
			EndDate:        end,
			Observations:   form.String(r, "observations"),
		})
		if err == nil {
			m.PrescriptionsIssued.Inc()
		}
		return err
	})
}

// prescriptionStatusHandler godoc
// @Summary Cambiar estado de receta
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param id path int true "animal"
// @Param rxID path int true "receta"
// @Param status formData string true "active | suspended | completed"
// @Success 303 "redirect a la ficha"
// @Router /vet/animal/{id}/receita/{rxID}/status [post]
func prescriptionStatusHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer) http.HandlerFunc {
	return withAnimal(v, forms, func(r *http.Request, animalID int64) error {
		rxID, ok := animals.PathID(r, "rxID")
		if !ok {
			return apperr.ErrNotFound
		}
		return svc.SetStatus(r.Context(), animalID, rxID, Status(form.String(r, "status")))
	})
}

// medicationsHandler godoc
// @Summary Inventario de medicamentos
// @Tags vet
// @Produce json
// @Success 200 {object} medicationsPage
// @Router /vet/medicamentos [get]
func medicationsHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Medications(r.Context())
		if err != nil {
			v.Fail(w, r, err)
			return
		}
		v.Render(w, r, http.StatusOK, "vet/medications", medicationsPage{Medications: items})
	}
}

// setStockHandler godoc
// @Summary Alta o ajuste de stock
// @Tags vet
// @Accept x-www-form-urlencoded
// @Param name formData string true "medicamento"
// @Param stock_quantity formData number true "stock"
// @Param unit formData string false "unidad"
// @Param min_stock formData number false "stock mínimo"
// @Success 303 "redirect al inventario"
// @Router /vet/medicamentos [post]
func setStockHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form.Parse(r); err != nil {
			v.Error(w, r, http.StatusBadRequest, "error.bad_request")
			return
		}

		fail := func(err error) {
			items, lerr := svc.Medications(r.Context())
			if lerr != nil {
				v.Fail(w, r, lerr)
				return
			}
			values := map[string]string{}
			for _, k := range []string{"name", "stock_quantity", "unit", "min_stock"} {
				values[k] = r.FormValue(k)
			}
			v.Form(w, r, http.StatusBadRequest, "vet/medications", medicationsPage{Medications: items, Values: values}, err)
		}

		stock, err := form.OptionalFloat(r, "stock_quantity")
		if err != nil {
			fail(err)
			return
		}
		minStock, err := form.OptionalFloat(r, "min_stock")
		if err != nil {
			fail(err)
			return
		}

		_, err = svc.SetStock(r.Context(), StockInput{
			Name:          form.String(r, "name"),
			StockQuantity: stock,
			Unit:          form.String(r, "unit"),
			MinStock:      minStock,
		})
		if err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				fail(err)
				return
			}
			v.Fail(w, r, err)
			return
		}
		v.Redirect(w, r, "/vet/medicamentos")
	}
}

// withAnimal: validación => ficha con error (400); éxito => 303 a la ficha.
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
