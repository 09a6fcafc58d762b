package pharmacy

import "context"

type Repository interface {
	// Prescribe busca el medicamento por nombre (sin distinguir mayúsculas), lo crea si
	// no existe e inserta la receta, todo en una transacción. created indica si hubo alta.
	Prescribe(ctx context.Context, medicationName string, rx Prescription) (out Prescription, created bool, err error)
	GetPrescription(ctx context.Context, animalID, id int64) (Prescription, error)
	SetPrescriptionStatus(ctx context.Context, animalID, id int64, status Status) error
	ListPrescriptions(ctx context.Context, animalID int64) ([]Prescription, error)

	ListMedications(ctx context.Context) ([]Medication, error)
	// UpsertMedication aplica find-or-create por nombre y actualiza stock, unidad y mínimo.
	UpsertMedication(ctx context.Context, m Medication) (Medication, error)
}
