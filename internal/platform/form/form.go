// Package form lee campos de formularios HTML (urlencoded o multipart).
package form

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shelter-clinical-records/internal/platform/apperr"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DateLayout = "2006-01-02"

	// maxMemory: lo que excede va a disco temporal (el tope real lo pone el body limit).
	maxMemory = 8 << 20
)

// Parse acepta urlencoded y multipart.
func Parse(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return err
		}
		return nil
	}
	return r.ParseForm()
}

func String(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// OptionalInt: vacío => nil.
func OptionalInt(r *http.Request, key string) (*int, error) {
	raw := String(r, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Invalid(key, "validation.number")
	}
	return &v, nil
}

// OptionalFloat acepta coma decimal ("12,5").
func OptionalFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.ReplaceAll(String(r, key), ",", ".")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.Invalid(key, "validation.number")
	}
	return &v, nil
}

// OptionalDate parsea YYYY-MM-DD en UTC; vacío => nil.
func OptionalDate(r *http.Request, key string) (*time.Time, error) {
	raw := String(r, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, apperr.Invalid(key, "validation.date")
	}
	return &t, nil
}

// Upload es un archivo recibido, con tipo ya resuelto.
type Upload struct {
	Data     []byte
	Filename string
	Mimetype string
}

// ErrNoFile: el campo no vino o vino vacío.
var ErrNoFile = errors.New("no file")

// File lee el archivo key. El tipo declarado por el cliente se respeta salvo que sea
// genérico; en ese caso se detecta por contenido.
func File(r *http.Request, key string) (*Upload, error) {
	f, hdr, err := r.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoFile
		}
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	return &Upload{
		Data:     data,
		Filename: cleanFilename(hdr),
		Mimetype: resolveMimetype(hdr.Header.Get("Content-Type"), data),
	}, nil
}

func resolveMimetype(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// IsImage mira el contenido real, no lo que declaró el cliente.
func IsImage(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

func cleanFilename(hdr *multipart.FileHeader) string {
	name := filepath.Base(strings.ReplaceAll(hdr.Filename, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
