package session

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shelter-clinical-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]memRow
}

type memRow struct {
	data   []byte
	expiry time.Time
}

func newMemStore() *memStore { return &memStore{rows: map[string]memRow{}} }

func (s *memStore) Find(_ context.Context, key string, now time.Time) ([]byte, time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok || !row.expiry.After(now) {
		return nil, time.Time{}, false, nil
	}
	return row.data, row.expiry, true, nil
}

func (s *memStore) Save(_ context.Context, key string, data []byte, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = memRow{data: data, expiry: expiry}
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	return nil
}

func (s *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, row := range s.rows {
		if !row.expiry.After(now) {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

func newTestManager(t *testing.T, store Store, opts Options) *Manager {
	t.Helper()
	if opts.CookieName == "" {
		opts.CookieName = "sid"
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = time.Hour
	}
	if opts.Secret == nil {
		opts.Secret = []byte("0123456789abcdef0123456789abcdef")
	}
	m, err := NewManager(store, opts, nil)
	require.NoError(t, err)
	return m
}

// serve ejecuta h detrás de LoadAndSave con el cookie dado.
func serve(m *Manager, cookie *http.Cookie, h http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	m.LoadAndSave(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestLogin_RotatesTokenAndStoresPrincipal(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, Options{})

	// Sesión anónima con CSRF (como al abrir el login).
	rec := serve(m, nil, func(w http.ResponseWriter, r *http.Request) {
		_, err := m.EnsureCSRFToken(w, r)
		require.NoError(t, err)
	})
	anon := sessionCookie(t, rec, "sid")
	require.Len(t, store.rows, 1)

	principal := auth.Principal{ID: 1, Name: "Ana", Email: "ana@example.com", Role: auth.RoleVeterinary}
	rec = serve(m, anon, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Login(w, r, principal))
	})
	logged := sessionCookie(t, rec, "sid")

	assert.NotEqual(t, anon.Value, logged.Value)
	assert.Len(t, store.rows, 1, "old session row must be gone")

	// El token viejo ya no autentica.
	serve(m, anon, func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context()).Principal()
		assert.False(t, ok)
	})
	// El nuevo sí.
	serve(m, logged, func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context()).Principal()
		require.True(t, ok)
		assert.Equal(t, principal, p)
		assert.NotEmpty(t, FromContext(r.Context()).CSRFToken())
	})
}

func TestDestroy_ClearsCookieWithSameAttributes(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, Options{ForceSecure: true})

	rec := serve(m, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Login(w, r, auth.Principal{ID: 2, Role: auth.RoleViewer}))
	})
	c := sessionCookie(t, rec, "sid")
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	rec = serve(m, c, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Destroy(w, r))
	})
	cleared := sessionCookie(t, rec, "sid")
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Equal(t, "/", cleared.Path)
	assert.True(t, cleared.HttpOnly)
	assert.True(t, cleared.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cleared.SameSite)
	assert.Empty(t, store.rows)

	serve(m, c, func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context()).Principal()
		assert.False(t, ok)
	})
}

func TestExpiredSessionIsIgnored(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, Options{IdleTimeout: time.Hour})
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	rec := serve(m, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Login(w, r, auth.Principal{ID: 3, Role: auth.RoleViewer}))
	})
	c := sessionCookie(t, rec, "sid")

	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	serve(m, c, func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context()).Principal()
		assert.False(t, ok)
	})

	n, err := m.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSecureDetection(t *testing.T) {
	plain := newTestManager(t, newMemStore(), Options{})
	proxied := newTestManager(t, newMemStore(), Options{TrustProxy: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, plain.secure(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.False(t, plain.secure(req), "untrusted proxy header must be ignored")
	assert.True(t, proxied.secure(req))

	tlsReq := httptest.NewRequest(http.MethodGet, "/", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	assert.True(t, plain.secure(tlsReq))
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(newMemStore(), Options{CookieName: "sid", IdleTimeout: time.Hour}, nil)
	assert.Error(t, err)
}
