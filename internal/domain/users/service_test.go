package users

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[int64]User{}}
}

func (r *testRepo) Create(_ context.Context, u User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return 0, apperr.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.byID[u.ID] = u
	return u.ID, nil
}

func (r *testRepo) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, apperr.ErrNotFound
}

func (r *testRepo) GetByID(_ context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (r *testRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Active = active
	r.byID[id] = u
	return nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

// -------------------------
// Tests
// -------------------------

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: " Ana ", Email: "Ana@Example.com", Password: "s3cret-pass", Role: auth.RoleVeterinary})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "s3cret-pass", repo.byID[u.ID].PasswordHash)

	p, err := svc.Authenticate(ctx, "ANA@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{ID: u.ID, Name: "Ana", Email: "ana@example.com", Role: auth.RoleVeterinary}, p)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: auth.RoleViewer})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ANA@example.com", Password: "other-pass", Role: auth.RoleVeterinary})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Len(t, repo.byID, 1)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"admin not self registrable", RegisterInput{Name: "A", Email: "a@example.com", Password: "s3cret-pass", Role: auth.RoleAdmin}, "role"},
		{"unknown role", RegisterInput{Name: "A", Email: "a@example.com", Password: "s3cret-pass", Role: "owner"}, "role"},
		{"short password", RegisterInput{Name: "A", Email: "a@example.com", Password: "short", Role: auth.RoleViewer}, "password"},
		{"long password", RegisterInput{Name: "A", Email: "a@example.com", Password: strings.Repeat("x", 73), Role: auth.RoleViewer}, "password"},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "s3cret-pass", Role: auth.RoleViewer}, "email"},
		{"missing name", RegisterInput{Email: "a@example.com", Password: "s3cret-pass", Role: auth.RoleViewer}, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			ve, ok := apperr.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestAuthenticate_FailuresAreIdentical(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: auth.RoleVeterinary})
	require.NoError(t, err)

	_, wrongPass := svc.Authenticate(ctx, "ana@example.com", "wrong-pass")
	_, unknown := svc.Authenticate(ctx, "bob@example.com", "wrong-pass")
	_, empty := svc.Authenticate(ctx, "", "")

	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.ErrorIs(t, empty, ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestSetActive_BlocksLoginAndVerify(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: auth.RoleVeterinary})
	require.NoError(t, err)
	p := u.Principal()

	fresh, err := svc.Verify(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, fresh)

	require.NoError(t, svc.SetActive(ctx, "ANA@example.com", false))

	_, err = svc.Authenticate(ctx, "ana@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Verify(ctx, p)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.SetActive(ctx, "ana@example.com", true))
	_, err = svc.Authenticate(ctx, "ana@example.com", "s3cret-pass")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetActive(ctx, "ghost@example.com", false), apperr.ErrNotFound)
}

func TestVerify_RoleChangedOrMissing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: auth.RoleVeterinary})
	require.NoError(t, err)

	stale := u.Principal()
	changed := repo.byID[u.ID]
	changed.Role = auth.RoleViewer
	repo.byID[u.ID] = changed

	_, err = svc.Verify(ctx, stale)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Verify(ctx, auth.Principal{ID: 999, Role: auth.RoleVeterinary})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateAdmin(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.CreateAdmin(context.Background(), "Root", "root@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)
	assert.True(t, u.Principal().CanWrite())
}
