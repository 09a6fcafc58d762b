package form

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"shelter-clinical-records/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func urlencoded(t *testing.T, vals url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, Parse(req))
	return req
}

func TestOptionalValues(t *testing.T) {
	req := urlencoded(t, url.Values{
		"age":    {"3"},
		"weight": {"12,5"},
		"date":   {"2025-03-01"},
		"bad":    {"x"},
	})

	age, err := OptionalInt(req, "age")
	require.NoError(t, err)
	assert.Equal(t, 3, *age)

	w, err := OptionalFloat(req, "weight")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, *w, 0.0001)

	d, err := OptionalDate(req, "date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *d)

	missing, err := OptionalInt(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = OptionalInt(req, "bad")
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "bad", ve.Field)

	_, err = OptionalDate(req, "bad")
	assert.Error(t, err)
}

func TestFile_SniffsGenericContentType(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="C:\\fotos\\rex.png"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(pngHeader)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, Parse(req))

	up, err := File(req, "file")
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.Mimetype)
	assert.Equal(t, "rex.png", up.Filename)
	assert.True(t, IsImage(up.Data))
	assert.False(t, IsImage([]byte("%PDF-1.4 hello")))
}

func TestFile_Missing(t *testing.T) {
	req := urlencoded(t, url.Values{"a": {"b"}})
	_, err := File(req, "file")
	assert.ErrorIs(t, err, ErrNoFile)
}
