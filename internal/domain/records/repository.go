package records

import "context"

type Repository interface {
	AddHealthRecord(ctx context.Context, h HealthRecord) (int64, error)
	CurrentHealthRecord(ctx context.Context, animalID int64) (HealthRecord, error)
	ListHealthRecords(ctx context.Context, animalID int64) ([]HealthRecord, error)

	AddVaccine(ctx context.Context, v Vaccine) (int64, error)
	ListVaccines(ctx context.Context, animalID int64) ([]Vaccine, error)

	// Admit inserta la internación y pone el animal en status hospital, todo o nada.
	Admit(ctx context.Context, h Hospitalization) (int64, error)
	GetHospitalization(ctx context.Context, animalID, id int64) (Hospitalization, error)
	// Discharge registra fecha y estado de salida. No toca el status del animal.
	Discharge(ctx context.Context, h Hospitalization) error
	ListHospitalizations(ctx context.Context, animalID int64) ([]Hospitalization, error)

	AddProcedure(ctx context.Context, p Procedure) (int64, error)
	ListProcedures(ctx context.Context, animalID int64) ([]Procedure, error)
	ListRecentProcedures(ctx context.Context, f ProcedureFilter) ([]Procedure, error)
}
