package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/validation"
	"shelter-clinical-records/internal/ports/auth"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials cubre email inexistente, password incorrecto y cuenta inactiva.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrRoleNotAllowed     = errors.New("role not allowed")
)

// bcrypt ignora lo que pasa de 72 bytes; preferimos rechazarlo.
const maxPasswordBytes = 72

type Service struct {
	repo Repository
	now  func() time.Time
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		cost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Name     string    `form:"name" validate:"required,max=120"`
	Email    string    `form:"email" validate:"required,email,max=254"`
	Password string    `form:"password" validate:"required,min=8"`
	Role     auth.Role `form:"role" validate:"required"`
}

// Register crea una cuenta autoregistrable (veterinary o viewer).
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if !in.Role.SelfRegistrable() {
		return User{}, apperr.Invalid("role", "validation.oneof")
	}
	return s.create(ctx, in)
}

// CreateAdmin es el único camino a RoleAdmin (CLI).
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (User, error) {
	return s.create(ctx, RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     auth.RoleAdmin,
	})
}

func (s *Service) create(ctx context.Context, in RegisterInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := validation.Struct(in); err != nil {
		return User{}, err
	}
	if !in.Role.Valid() {
		return User{}, apperr.Invalid("role", "validation.oneof")
	}
	if len(in.Password) > maxPasswordBytes {
		return User{}, &apperr.ValidationError{Field: "password", MessageID: "validation.max", Param: "72"}
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, ErrDuplicateEmail
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}

	id, err := s.repo.Create(ctx, u)
	if err != nil {
		// Carrera entre el chequeo y el insert: la unicidad del store decide.
		if errors.Is(err, apperr.ErrDuplicate) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return u, nil
}

// Authenticate valida credenciales. Todas las fallas devuelven ErrInvalidCredentials
// y un email desconocido igual paga una comparación bcrypt.
func (s *Service) Authenticate(ctx context.Context, email, password string) (auth.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return auth.Principal{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return auth.Principal{}, ErrInvalidCredentials
		}
		return auth.Principal{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return auth.Principal{}, ErrInvalidCredentials
	}
	if !u.Active {
		return auth.Principal{}, ErrInvalidCredentials
	}
	return u.Principal(), nil
}

// Verify implementa auth.Verifier: el usuario sigue activo y con el mismo rol.
func (s *Service) Verify(ctx context.Context, p auth.Principal) (auth.Principal, error) {
	u, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return auth.Principal{}, apperr.ErrForbidden
		}
		return auth.Principal{}, err
	}
	if !u.Active || u.Role != p.Role {
		return auth.Principal{}, apperr.ErrForbidden
	}
	return u.Principal(), nil
}

// SetActive activa o desactiva una cuenta por email (CLI). Las sesiones abiertas
// siguen vivas; RequireVerified las corta en las operaciones sensibles.
func (s *Service) SetActive(ctx context.Context, email string, active bool) error {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	return s.repo.SetActive(ctx, u.ID, active)
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
