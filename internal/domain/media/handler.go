package media

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/middleware"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/form"
	"shelter-clinical-records/internal/platform/metrics"
	"shelter-clinical-records/internal/platform/view"

	"github.com/go-chi/chi/v5"
)

// RegisterVetRoutes monta fotos, documentos y la biblioteca bajo /vet.
func RegisterVetRoutes(r chi.Router, svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector) {
	r.Post("/animal/{id}/document", uploadHandler(svc, v, forms, m, KindDocument))
	r.Get("/animal/{id}/document/{fileID}", downloadHandler(svc, v, KindDocument))
	r.Post("/animal/{id}/photo", uploadHandler(svc, v, forms, m, KindPhoto))
	r.Get("/animal/{id}/photo/{fileID}", downloadHandler(svc, v, KindPhoto))
	r.Get("/biblioteca", libraryHandler(svc, v))
}

// RegisterViewerRoutes: el área de lectura solo sube y ve fotos.
func RegisterViewerRoutes(r chi.Router, svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector) {
	r.Post("/animal/{id}/photo", uploadHandler(svc, v, forms, m, KindPhoto))
	r.Get("/animal/{id}/photo/{fileID}", downloadHandler(svc, v, KindPhoto))
}

type libraryPage struct {
	Query     string         `json:"q"`
	Documents []LibraryEntry `json:"documents"`
}

// uploadHandler godoc
// @Summary Subir foto o documento
// @Description Multipart con campo "file" y "description" opcional. Las fotos deben ser imágenes.
// @Tags media
// @Accept mpfd
// @Param id path int true "animal"
// @Param file formData file true "archivo"
// @Param description formData string false "descripción"
// @Success 303 "redirect a la ficha"
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /vet/animal/{id}/document [post]
// @Router /vet/animal/{id}/photo [post]
// @Router /user/animal/{id}/photo [post]
func uploadHandler(svc *Service, v *view.Renderer, forms view.AnimalFormRenderer, m *metrics.Collector, kind Kind) http.HandlerFunc {
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

		up, err := form.File(r, "file")
		if err != nil {
			if errors.Is(err, form.ErrNoFile) {
				forms.AnimalForm(w, r, animalID, apperr.Invalid("file", "validation.required"))
				return
			}
			v.Error(w, r, http.StatusBadRequest, "error.bad_request")
			return
		}

		p, _ := middleware.GetPrincipal(r.Context())
		item, err := svc.Upload(r.Context(), p, animalID, kind, UploadInput{
			Data:        up.Data,
			Filename:    up.Filename,
			Mimetype:    up.Mimetype,
			Description: form.String(r, "description"),
			IsImage:     form.IsImage(up.Data),
		})
		if err != nil {
			if _, ok := apperr.AsValidation(err); ok {
				forms.AnimalForm(w, r, animalID, err)
				return
			}
			v.Fail(w, r, err)
			return
		}

		m.UploadsTotal.WithLabelValues(string(kind)).Inc()
		m.UploadBytes.WithLabelValues(string(kind)).Add(float64(item.SizeBytes))
		v.Redirect(w, r, chartPath(r, animalID))
	}
}

// downloadHandler godoc
// @Summary Descargar foto o documento
// @Description Responde con el content-type y nombre guardados. Fotos sin tipo salen como image/jpeg.
// @Tags media
// @Produce octet-stream
// @Param id path int true "animal"
// @Param fileID path int true "archivo"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /vet/animal/{id}/document/{fileID} [get]
// @Router /vet/animal/{id}/photo/{fileID} [get]
// @Router /user/animal/{id}/photo/{fileID} [get]
func downloadHandler(svc *Service, v *view.Renderer, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animalID, ok := animals.PathID(r, "id")
		if !ok {
			v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		fileID, ok := animals.PathID(r, "fileID")
		if !ok {
			v.Error(w, r, http.StatusNotFound, "error.not_found")
			return
		}

		b, err := svc.Download(r.Context(), kind, animalID, fileID)
		if err != nil {
			v.Fail(w, r, err)
			return
		}

		w.Header().Set("Content-Type", *b.Mimetype)
		w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "private, no-store")
		if cd := disposition(kind, b.Filename); cd != "" {
			w.Header().Set("Content-Disposition", cd)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b.Data)
	}
}

// libraryHandler godoc
// @Summary Biblioteca de documentos
// @Description Documentos de todos los animales; filtra por nombre de archivo o descripción.
// @Tags vet
// @Produce json
// @Param q query string false "texto"
// @Success 200 {object} libraryPage
// @Router /vet/biblioteca [get]
func libraryHandler(svc *Service, v *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		items, err := svc.Library(r.Context(), LibraryFilter{Query: q})
		if err != nil {
			v.Fail(w, r, err)
			return
		}
		v.Render(w, r, http.StatusOK, "vet/library", libraryPage{Query: q, Documents: items})
	}
}

// Los documentos se descargan; las fotos se muestran en línea.
func disposition(kind Kind, filename *string) string {
	typ := "attachment"
	if kind == KindPhoto {
		typ = "inline"
	}
	if filename == nil || *filename == "" {
		if kind == KindPhoto {
			return ""
		}
		return typ
	}
	return mime.FormatMediaType(typ, map[string]string{"filename": *filename})
}

func chartPath(r *http.Request, animalID int64) string {
	area := "/vet"
	if strings.HasPrefix(r.URL.Path, "/user/") {
		area = "/user"
	}
	return area + "/animal/" + strconv.FormatInt(animalID, 10)
}
