package media

import "context"

type Repository interface {
	Add(ctx context.Context, b Blob) (int64, error)
	// Get filtra también por animal: un id de otro animal es ErrNotFound.
	Get(ctx context.Context, kind Kind, animalID, id int64) (Blob, error)
	// List devuelve la metadata más reciente primero.
	List(ctx context.Context, kind Kind, animalID int64) ([]Item, error)
	Library(ctx context.Context, f LibraryFilter) ([]LibraryEntry, error)
}
