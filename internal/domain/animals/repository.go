package animals

import "context"

type Repository interface {
	// Create devuelve apperr.ErrDuplicate si el chip ya existe.
	Create(ctx context.Context, a Animal, photo *Photo) (int64, error)
	Update(ctx context.Context, a Animal) error
	SetPhoto(ctx context.Context, id int64, p Photo) error
	GetByID(ctx context.Context, id int64) (Animal, error)
	GetPhoto(ctx context.Context, id int64) (Photo, error)
	// Delete borra el animal y, por cascada, todo su historial.
	Delete(ctx context.Context, id int64) error
	// ListActive: no adoptados ni fallecidos, con conteos, más recientes primero.
	ListActive(ctx context.Context) ([]Summary, error)
	Search(ctx context.Context, f SearchFilter) ([]Animal, error)
}
