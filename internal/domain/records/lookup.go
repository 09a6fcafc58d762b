package records

import (
	"context"

	"shelter-clinical-records/internal/domain/animals"
)

// AnimalLookup es lo único que este módulo necesita del de animales.
type AnimalLookup interface {
	Get(ctx context.Context, id int64) (animals.Animal, error)
}
