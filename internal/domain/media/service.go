package media

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/ports/auth"
)

const (
	defaultLibraryLimit = 100
	maxLibraryLimit     = 500
	maxDescription      = 500
	maxFilename         = 255
)

type AnimalLookup interface {
	Get(ctx context.Context, id int64) (animals.Animal, error)
}

type Service struct {
	repo    Repository
	animals AnimalLookup
	now     func() time.Time
}

func NewService(repo Repository, animals AnimalLookup) *Service {
	return &Service{
		repo:    repo,
		animals: animals,
		now:     time.Now,
	}
}

// UploadInput: IsImage lo calcula el handler mirando el contenido.
type UploadInput struct {
	Data        []byte
	Filename    string
	Mimetype    string
	Description string
	IsImage     bool
}

func (s *Service) Upload(ctx context.Context, actor auth.Principal, animalID int64, kind Kind, in UploadInput) (Item, error) {
	if kind != KindPhoto && kind != KindDocument {
		return Item{}, apperr.Invalid("kind", "validation.oneof")
	}
	if _, err := s.animals.Get(ctx, animalID); err != nil {
		return Item{}, err
	}
	if len(in.Data) == 0 {
		return Item{}, apperr.Invalid("file", "validation.required")
	}
	if kind == KindPhoto && !in.IsImage {
		return Item{}, apperr.Invalid("file", "media.not_image")
	}

	in.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(in.Description) > maxDescription {
		return Item{}, &apperr.ValidationError{Field: "description", MessageID: "validation.max", Param: "500"}
	}

	b := Blob{
		Item: Item{
			AnimalID:    animalID,
			Kind:        kind,
			Description: in.Description,
			Mimetype:    optional(in.Mimetype),
			Filename:    optional(truncate(in.Filename, maxFilename)),
			SizeBytes:   int64(len(in.Data)),
			UploadedBy:  actor.ID,
			UploadedAt:  s.now().UTC(),
		},
		Data: in.Data,
	}
	id, err := s.repo.Add(ctx, b)
	if err != nil {
		return Item{}, err
	}
	b.ID = id
	return b.Item, nil
}

// Download devuelve el archivo con el tipo y nombre resueltos para la respuesta.
func (s *Service) Download(ctx context.Context, kind Kind, animalID, id int64) (Blob, error) {
	b, err := s.repo.Get(ctx, kind, animalID, id)
	if err != nil {
		return Blob{}, err
	}
	if b.Mimetype == nil || *b.Mimetype == "" {
		def := DefaultDocumentMimetype
		if kind == KindPhoto {
			def = DefaultPhotoMimetype
		}
		b.Mimetype = &def
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, kind Kind, animalID int64) ([]Item, error) {
	return s.repo.List(ctx, kind, animalID)
}

func (s *Service) Library(ctx context.Context, f LibraryFilter) ([]LibraryEntry, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.Limit <= 0 {
		f.Limit = defaultLibraryLimit
	}
	if f.Limit > maxLibraryLimit {
		f.Limit = maxLibraryLimit
	}
	return s.repo.Library(ctx, f)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
