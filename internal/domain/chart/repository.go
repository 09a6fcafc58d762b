package chart

import (
	"context"
	"time"

	"shelter-clinical-records/internal/domain/pharmacy"
)

// Repository cubre las lecturas que cruzan módulos (reportes y registros por autor).
type Repository interface {
	CountAnimalsByStatus(ctx context.Context) ([]Count, error)
	CountAnimalsBySpecies(ctx context.Context) ([]Count, error)
	OpenHospitalizations(ctx context.Context) ([]OpenHospitalization, error)
	// LowStockMedications: stock_quantity <= min_stock.
	LowStockMedications(ctx context.Context) ([]pharmacy.Medication, error)
	// VaccinesDue: next_dose dentro de [from, to], más próximas primero.
	VaccinesDue(ctx context.Context, from, to time.Time) ([]DueVaccine, error)
	Authored(ctx context.Context, userID int64, kind EntryKind, limit int) ([]AuthoredEntry, error)
}
