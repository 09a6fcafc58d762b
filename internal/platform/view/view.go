// Package view pinta páginas HTML (html/template + sprig) y, si el cliente pide
// application/json, devuelve el mismo payload como JSON.
package view

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/i18n"
	"shelter-clinical-records/internal/platform/logger"
	"shelter-clinical-records/internal/ports/auth"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Globals son los datos comunes a todas las páginas.
type Globals struct {
	Principal *auth.Principal
	CSRFToken string
}

// GlobalsFunc los resuelve por request (sesión + principal).
type GlobalsFunc func(w http.ResponseWriter, r *http.Request) Globals

// AnimalFormRenderer vuelve a pintar la ficha del animal con el error de un formulario.
// Lo implementa el módulo chart; lo consumen los handlers de escritura.
type AnimalFormRenderer interface {
	AnimalForm(w http.ResponseWriter, r *http.Request, animalID int64, err error)
}

type Page struct {
	Lang       string
	Principal  *auth.Principal
	CSRFToken  string
	Error      string
	ErrorField string
	Data       any
}

type Renderer struct {
	pages   map[string]*template.Template
	tr      *i18n.Translator
	globals GlobalsFunc
	log     logger.Logger
}

func New(tr *i18n.Translator, globals GlobalsFunc, log logger.Logger) (*Renderer, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if globals == nil {
		globals = func(http.ResponseWriter, *http.Request) Globals { return Globals{} }
	}

	pages := map[string]*template.Template{}
	err := fs.WalkDir(templatesFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/pages/"), ".html")
		tpl, err := template.New(name).Funcs(baseFuncs()).ParseFS(templatesFS, "templates/layout.html", p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		pages[name] = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Renderer{pages: pages, tr: tr, globals: globals, log: log}, nil
}

// Render pinta page con data, o la serializa si el cliente pide JSON.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	v.render(w, r, status, page, data, nil)
}

// Form re-pinta un formulario con el error traducido (ValidationError o message ID).
func (v *Renderer) Form(w http.ResponseWriter, r *http.Request, status int, page string, data any, err error) {
	v.render(w, r, status, page, data, err)
}

// Error pinta la página de error con un mensaje fijo.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, messageID string) {
	msg := v.tr.Localize(v.tr.Lang(r), messageID, nil)
	if WantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	v.render(w, r, status, "error", map[string]any{"Status": status, "Message": msg}, nil)
}

// Fail mapea un error de dominio a respuesta; los 500 se loguean y no exponen detalle.
func (v *Renderer) Fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	switch status {
	case http.StatusNotFound:
		v.Error(w, r, status, "error.not_found")
	case http.StatusForbidden:
		v.Error(w, r, status, "error.forbidden")
	case http.StatusBadRequest:
		v.Error(w, r, status, v.messageID(err))
	default:
		v.log.Error("request failed", map[string]any{"err": err, "path": r.URL.Path, "method": r.Method})
		v.Error(w, r, http.StatusInternalServerError, "error.internal")
	}
}

// Redirect usa 303 para que el navegador siga con GET después de un POST.
func (v *Renderer) Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// T traduce en el idioma del request.
func (v *Renderer) T(r *http.Request, id string, data map[string]any) string {
	return v.tr.Localize(v.tr.Lang(r), id, data)
}

func (v *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data any, formErr error) {
	lang := v.tr.Lang(r)

	var errMsg, errField string
	if formErr != nil {
		errMsg, errField = v.localizeErr(lang, formErr)
	}

	if WantsJSON(r) {
		if formErr != nil {
			writeJSON(w, status, map[string]string{"error": errMsg, "field": errField})
			return
		}
		writeJSON(w, status, data)
		return
	}

	base, ok := v.pages[page]
	if !ok {
		v.log.Error("unknown page", map[string]any{"page": page})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	tpl, err := base.Clone()
	if err != nil {
		v.log.Error("template clone failed", map[string]any{"page": page, "err": err})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tpl.Funcs(template.FuncMap{
		"t": func(id string, kv ...any) string {
			return v.tr.Localize(lang, id, pairs(kv))
		},
	})

	g := v.globals(w, r)
	p := Page{
		Lang:       lang,
		Principal:  g.Principal,
		CSRFToken:  g.CSRFToken,
		Error:      errMsg,
		ErrorField: errField,
		Data:       data,
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		v.log.Error("template render failed", map[string]any{"page": page, "err": err})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (v *Renderer) localizeErr(lang string, err error) (msg, field string) {
	if ve, ok := apperr.AsValidation(err); ok {
		return v.tr.Localize(lang, ve.MessageID, map[string]any{"Field": ve.Field, "Param": ve.Param}), ve.Field
	}
	return v.tr.Localize(lang, err.Error(), nil), ""
}

func (v *Renderer) messageID(err error) string {
	if ve, ok := apperr.AsValidation(err); ok {
		return ve.MessageID
	}
	return "error.bad_request"
}

// MessageError permite pasar a Form un message ID sin campo asociado.
type MessageError string

func (e MessageError) Error() string { return string(e) }

// StaticHandler sirve /static/* desde el binario.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// WantsJSON: clientes que piden JSON explícitamente.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func baseFuncs() template.FuncMap {
	funcs := sprig.HtmlFuncMap()
	funcs["t"] = func(id string, kv ...any) string { return id }
	funcs["fmtDate"] = func(v any) string { return formatTime(v, "2006-01-02") }
	funcs["fmtDateTime"] = func(v any) string { return formatTime(v, "2006-01-02 15:04") }
	funcs["deref"] = deref
	return funcs
}

func formatTime(v any, layout string) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(layout)
	default:
		return ""
	}
}

func deref(v any) any {
	switch p := v.(type) {
	case *int:
		if p == nil {
			return ""
		}
		return *p
	case *float64:
		if p == nil {
			return ""
		}
		return *p
	case *string:
		if p == nil {
			return ""
		}
		return *p
	default:
		return v
	}
}

func pairs(kv []any) map[string]any {
	if len(kv) < 2 {
		return nil
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[k] = kv[i+1]
	}
	return out
}
