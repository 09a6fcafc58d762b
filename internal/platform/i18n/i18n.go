// Package i18n traduce mensajes de UI y de error (pt-BR por defecto, en como alternativa).
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

// HeaderLang permite forzar idioma por request (clientes JSON, tests).
const HeaderLang = "X-Lang"

type Translator struct {
	bundle  *goi18n.Bundle
	matcher language.Matcher
	tags    []language.Tag
	def     language.Tag
}

func New(defaultLang string) (*Translator, error) {
	def, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
	}

	bundle := goi18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	// El default va primero: es lo que devuelve el matcher si nada encaja.
	tags := []language.Tag{def}
	for _, tag := range bundle.LanguageTags() {
		if tag != def {
			tags = append(tags, tag)
		}
	}

	return &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher(tags),
		tags:    tags,
		def:     def,
	}, nil
}

// Localize devuelve el mensaje traducido o el propio ID si no existe.
func (t *Translator) Localize(lang, id string, data map[string]any) string {
	loc := goi18n.NewLocalizer(t.bundle, lang, t.def.String())
	cfg := &goi18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data
	}
	msg, err := loc.Localize(cfg)
	if err != nil {
		return id
	}
	return msg
}

// Lang resuelve el idioma del request: X-Lang, luego Accept-Language, luego el default.
func (t *Translator) Lang(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderLang)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return t.match(tag)
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		prefs, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(prefs) > 0 {
			return t.match(prefs...)
		}
	}
	return t.def.String()
}

func (t *Translator) Default() string {
	return t.def.String()
}

func (t *Translator) match(prefs ...language.Tag) string {
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return t.def.String()
	}
	return t.tags[idx].String()
}
