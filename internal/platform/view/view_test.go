package view_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/platform/i18n"
	"shelter-clinical-records/internal/platform/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	tr, err := i18n.New("pt-BR")
	require.NoError(t, err)
	v, err := view.New(tr, nil, nil)
	require.NoError(t, err)
	return v
}

func TestNew_ParsesEveryPage(t *testing.T) {
	v := newRenderer(t)

	rec := httptest.NewRecorder()
	v.Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusRequestEntityTooLarge, "error.too_large")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Arquivo ou formulário grande demais")
}

func TestError_JSON(t *testing.T) {
	v := newRenderer(t)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Lang", "en")
	rec := httptest.NewRecorder()
	v.Error(rec, req, http.StatusNotFound, "error.not_found")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestStatusLabels(t *testing.T) {
	v := newRenderer(t)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	for _, s := range animals.Statuses {
		id := "status." + string(s)
		assert.NotEqual(t, id, v.T(req, id, nil), "missing label for %s", s)
	}
	assert.Equal(t, "Na clínica", v.T(req, "status.clinic", nil))
}
