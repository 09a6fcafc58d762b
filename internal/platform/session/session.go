// Package session implementa sesiones del lado del servidor: el cookie solo lleva un
// token aleatorio y el estado vive en el store, indexado por HMAC(secret, token).
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"shelter-clinical-records/internal/platform/logger"
	"shelter-clinical-records/internal/ports/auth"
)

// touchInterval limita las escrituras de expiración a una por minuto por sesión.
const touchInterval = time.Minute

// Store persiste sesiones. Find debe ignorar filas expiradas.
type Store interface {
	Find(ctx context.Context, key string, now time.Time) (data []byte, expiry time.Time, found bool, err error)
	Save(ctx context.Context, key string, data []byte, expiry time.Time) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Options struct {
	CookieName  string
	IdleTimeout time.Duration
	Secret      []byte
	// ForceSecure marca el cookie Secure siempre.
	ForceSecure bool
	// TrustProxy acepta X-Forwarded-Proto=https como TLS confirmado.
	TrustProxy bool
}

// Data es lo que se serializa en el store.
type Data struct {
	Principal *auth.Principal `json:"principal,omitempty"`
	CSRFToken string          `json:"csrf_token,omitempty"`
}

// Session es el estado de un request. Los handlers no la mutan directamente;
// todo pasa por el Manager para que store y cookie queden alineados.
type Session struct {
	mu     sync.Mutex
	token  string
	data   Data
	expiry time.Time
}

func (s *Session) Principal() (auth.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Principal == nil {
		return auth.Principal{}, false
	}
	return *s.data.Principal, true
}

func (s *Session) CSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CSRFToken
}

type ctxKey struct{}

// FromContext devuelve la sesión del request o una vacía si no hay middleware.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{}
}

type Manager struct {
	store Store
	opts  Options
	log   logger.Logger
	now   func() time.Time
}

func NewManager(store Store, opts Options, log logger.Logger) (*Manager, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("session: secret is required")
	}
	if strings.TrimSpace(opts.CookieName) == "" {
		return nil, errors.New("session: cookie name is required")
	}
	if opts.IdleTimeout <= 0 {
		return nil, errors.New("session: idle timeout must be positive")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{store: store, opts: opts, log: log, now: time.Now}, nil
}

// LoadAndSave carga la sesión del cookie (si es válida) y la deja en el contexto.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := &Session{}

		if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
			loaded, err := m.load(r.Context(), c.Value)
			if err != nil {
				m.log.Error("session load failed", map[string]any{"err": err})
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if loaded != nil {
				s = loaded
				m.touch(w, r, s)
			}
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Login rota el token (fijación de sesión) y guarda el principal con un CSRF nuevo.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	s := FromContext(r.Context())

	csrf, err := newToken()
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.token
	s.data = Data{Principal: &p, CSRFToken: csrf}
	s.mu.Unlock()

	if old != "" {
		if err := m.store.Delete(r.Context(), m.key(old)); err != nil {
			return fmt.Errorf("session: delete old: %w", err)
		}
	}
	return m.commit(w, r, s, true, true)
}

// Destroy borra la sesión del store y expira el cookie con los mismos atributos.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	s := FromContext(r.Context())

	s.mu.Lock()
	token := s.token
	s.token = ""
	s.data = Data{}
	s.mu.Unlock()

	if token != "" {
		if err := m.store.Delete(r.Context(), m.key(token)); err != nil {
			return fmt.Errorf("session: delete: %w", err)
		}
	}

	c := m.cookie(r, "", time.Unix(1, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	return nil
}

// EnsureCSRFToken devuelve el token CSRF de la sesión y lo crea (persistiendo) si falta.
func (m *Manager) EnsureCSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	s := FromContext(r.Context())
	if tok := s.CSRFToken(); tok != "" {
		return tok, nil
	}

	csrf, err := newToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.data.CSRFToken = csrf
	s.mu.Unlock()

	if err := m.commit(w, r, s, false, true); err != nil {
		return "", err
	}
	return csrf, nil
}

// PurgeExpired borra sesiones vencidas. Se llama al arrancar; no hay barrido en background.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now().UTC())
}

func (m *Manager) load(ctx context.Context, token string) (*Session, error) {
	raw, expiry, found, err := m.store.Find(ctx, m.key(token), m.now().UTC())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		// Fila corrupta: se trata como sesión inexistente.
		m.log.Warn("session decode failed", map[string]any{"err": err})
		return nil, nil
	}
	return &Session{token: token, data: d, expiry: expiry}, nil
}

// touch extiende la expiración por inactividad, como mucho una vez por minuto.
func (m *Manager) touch(w http.ResponseWriter, r *http.Request, s *Session) {
	if err := m.commit(w, r, s, false, false); err != nil {
		m.log.Warn("session touch failed", map[string]any{"err": err})
	}
}

// commit persiste la sesión y reemite el cookie. Sin force, solo escribe si la
// expiración quedó atrasada más de touchInterval.
func (m *Manager) commit(w http.ResponseWriter, r *http.Request, s *Session, rotate, force bool) error {
	now := m.now().UTC()
	expiry := now.Add(m.opts.IdleTimeout)

	s.mu.Lock()
	if rotate || s.token == "" {
		tok, err := newToken()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.token = tok
		s.expiry = time.Time{}
	} else if !force && !s.expiry.IsZero() && s.expiry.Sub(now) > m.opts.IdleTimeout-touchInterval {
		// Recién tocada; nada que hacer.
		s.mu.Unlock()
		return nil
	}
	token := s.token
	raw, err := json.Marshal(s.data)
	s.expiry = expiry
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := m.store.Save(r.Context(), m.key(token), raw, expiry); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	http.SetCookie(w, m.cookie(r, token, expiry))
	return nil
}

func (m *Manager) cookie(r *http.Request, value string, expiry time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(m.opts.IdleTimeout.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure(r),
	}
}

// secure: TLS directo, proxy confiable con X-Forwarded-Proto=https, o forzado por config.
func (m *Manager) secure(r *http.Request) bool {
	if m.opts.ForceSecure || r.TLS != nil {
		return true
	}
	if !m.opts.TrustProxy {
		return false
	}
	proto := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0])
	return strings.EqualFold(proto, "https")
}

func (m *Manager) key(token string) string {
	mac := hmac.New(sha256.New, m.opts.Secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
