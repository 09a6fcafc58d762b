package animals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/validation"
	"shelter-clinical-records/internal/ports/auth"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Input sirve para alta y edición.
type Input struct {
	Name            string     `form:"name" validate:"required,max=120"`
	Species         string     `form:"species" validate:"required,max=60"`
	Breed           string     `form:"breed" validate:"max=60"`
	Age             *int       `form:"age" validate:"omitempty,gte=0,lte=60"`
	Sex             Sex        `form:"sex"`
	ChipID          string     `form:"chip_id" validate:"max=64"`
	Status          Status     `form:"status"`
	Description     string     `form:"description" validate:"max=4000"`
	Characteristics string     `form:"characteristics" validate:"max=4000"`
	EntryDate       *time.Time `form:"entry_date"`
	Photo           *Photo     `form:"-"`
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, in Input) (Animal, error) {
	if err := s.normalize(&in); err != nil {
		return Animal{}, err
	}

	now := s.now().UTC()
	entry := now
	if in.EntryDate != nil {
		entry = in.EntryDate.UTC()
	}

	a := Animal{
		Name:            in.Name,
		Species:         in.Species,
		Breed:           in.Breed,
		Age:             in.Age,
		Sex:             in.Sex,
		ChipID:          chipPtr(in.ChipID),
		Status:          in.Status,
		Description:     in.Description,
		Characteristics: in.Characteristics,
		HasPhoto:        in.Photo != nil,
		EntryDate:       entry,
		UpdatedAt:       now,
		CreatedBy:       actor.ID,
	}

	id, err := s.repo.Create(ctx, a, in.Photo)
	if err != nil {
		return Animal{}, mapChipErr(err)
	}
	a.ID = id
	return a, nil
}

// Update reemplaza los campos editables. Es el único camino para cambiar el status
// fuera de la internación (incluye el alta manual).
func (s *Service) Update(ctx context.Context, id int64, in Input) (Animal, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if err := s.normalize(&in); err != nil {
		return Animal{}, err
	}

	current.Name = in.Name
	current.Species = in.Species
	current.Breed = in.Breed
	current.Age = in.Age
	current.Sex = in.Sex
	current.ChipID = chipPtr(in.ChipID)
	current.Status = in.Status
	current.Description = in.Description
	current.Characteristics = in.Characteristics
	if in.EntryDate != nil {
		current.EntryDate = in.EntryDate.UTC()
	}
	current.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, current); err != nil {
		return Animal{}, mapChipErr(err)
	}
	if in.Photo != nil {
		if err := s.repo.SetPhoto(ctx, id, *in.Photo); err != nil {
			return Animal{}, err
		}
		current.HasPhoto = true
	}
	return current, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Animal, error) {
	if id <= 0 {
		return Animal{}, apperr.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// Dashboard lista los animales a cargo, más recientes primero.
func (s *Service) Dashboard(ctx context.Context) ([]Summary, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Animal, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Species = strings.TrimSpace(f.Species)
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "validation.oneof")
	}
	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}
	if f.Limit > maxSearchLimit {
		f.Limit = maxSearchLimit
	}
	return s.repo.Search(ctx, f)
}

// Photo devuelve la foto principal; filas legacy sin tipo salen como image/jpeg.
func (s *Service) Photo(ctx context.Context, id int64) (Photo, error) {
	p, err := s.repo.GetPhoto(ctx, id)
	if err != nil {
		return Photo{}, err
	}
	if strings.TrimSpace(p.Mimetype) == "" {
		p.Mimetype = DefaultPhotoMimetype
	}
	return p, nil
}

func (s *Service) normalize(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.ToLower(strings.TrimSpace(in.Species))
	in.Breed = strings.TrimSpace(in.Breed)
	in.ChipID = strings.TrimSpace(in.ChipID)
	in.Description = strings.TrimSpace(in.Description)
	in.Characteristics = strings.TrimSpace(in.Characteristics)

	if in.Sex == "" {
		in.Sex = SexUnknown
	}
	if in.Status == "" {
		in.Status = StatusShelter
	}

	if err := validation.Struct(in); err != nil {
		return err
	}
	if !in.Sex.Valid() {
		return apperr.Invalid("sex", "validation.oneof")
	}
	if !in.Status.Valid() {
		return apperr.Invalid("status", "validation.oneof")
	}
	if in.Photo != nil && len(in.Photo.Data) == 0 {
		in.Photo = nil
	}
	return nil
}

func chipPtr(chip string) *string {
	if chip == "" {
		return nil
	}
	return &chip
}

func mapChipErr(err error) error {
	if errors.Is(err, apperr.ErrDuplicate) {
		return apperr.Invalid("chip_id", "animal.chip_taken")
	}
	return fmt.Errorf("save animal: %w", err)
}
