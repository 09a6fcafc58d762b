package pharmacy

import (
	"context"
	"strings"
	"time"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/validation"
	"shelter-clinical-records/internal/ports/auth"
)

// AnimalLookup evita depender del servicio completo de animales.
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

type PrescribeInput struct {
	MedicationName string     `form:"medication" validate:"required,max=120"`
	Dosage         string     `form:"dosage" validate:"required,max=120"`
	Frequency      string     `form:"frequency" validate:"max=120"`
	StartDate      *time.Time `form:"start_date"`
	EndDate        *time.Time `form:"end_date"`
	Observations   string     `form:"observations" validate:"max=4000"`
}

// Prescribe emite una receta; si el medicamento no existe se da de alta con stock 0.
func (s *Service) Prescribe(ctx context.Context, actor auth.Principal, animalID int64, in PrescribeInput) (Prescription, bool, error) {
	if animalID <= 0 {
		return Prescription{}, false, apperr.ErrNotFound
	}
	if _, err := s.animals.Get(ctx, animalID); err != nil {
		return Prescription{}, false, err
	}

	in.MedicationName = normalizeName(in.MedicationName)
	in.Dosage = strings.TrimSpace(in.Dosage)
	in.Frequency = strings.TrimSpace(in.Frequency)
	in.Observations = strings.TrimSpace(in.Observations)
	if err := validation.Struct(in); err != nil {
		return Prescription{}, false, err
	}

	now := s.now().UTC()
	start := now
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}
	if in.EndDate != nil && in.EndDate.Before(start.Truncate(24*time.Hour)) {
		return Prescription{}, false, apperr.Invalid("end_date", "validation.date_order")
	}

	rx := Prescription{
		AnimalID:     animalID,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		StartDate:    start,
		EndDate:      in.EndDate,
		Status:       StatusActive,
		Observations: in.Observations,
		PrescribedBy: actor.ID,
		CreatedAt:    now,
	}
	return s.repo.Prescribe(ctx, in.MedicationName, rx)
}

func (s *Service) SetStatus(ctx context.Context, animalID, id int64, status Status) error {
	if !status.Valid() {
		return apperr.Invalid("status", "validation.oneof")
	}
	if _, err := s.repo.GetPrescription(ctx, animalID, id); err != nil {
		return err
	}
	return s.repo.SetPrescriptionStatus(ctx, animalID, id, status)
}

func (s *Service) Prescriptions(ctx context.Context, animalID int64) ([]Prescription, error) {
	return s.repo.ListPrescriptions(ctx, animalID)
}

func (s *Service) Medications(ctx context.Context) ([]Medication, error) {
	return s.repo.ListMedications(ctx)
}

type StockInput struct {
	Name          string   `form:"name" validate:"required,max=120"`
	StockQuantity *float64 `form:"stock_quantity" validate:"required,gte=0"`
	Unit          string   `form:"unit" validate:"max=30"`
	MinStock      *float64 `form:"min_stock" validate:"omitempty,gte=0"`
}

// SetStock da de alta o actualiza un medicamento del inventario.
func (s *Service) SetStock(ctx context.Context, in StockInput) (Medication, error) {
	in.Name = normalizeName(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if err := validation.Struct(in); err != nil {
		return Medication{}, err
	}

	m := Medication{
		Name:          in.Name,
		StockQuantity: *in.StockQuantity,
		Unit:          in.Unit,
		CreatedAt:     s.now().UTC(),
	}
	if in.MinStock != nil {
		m.MinStock = *in.MinStock
	}
	return s.repo.UpsertMedication(ctx, m)
}

// normalizeName colapsa espacios; la comparación sin mayúsculas la hace el store.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
