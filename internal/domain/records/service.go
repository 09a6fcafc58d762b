package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/platform/validation"
	"shelter-clinical-records/internal/ports/auth"
)

const (
	defaultProcedureLimit = 100
	maxProcedureLimit     = 500
)

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

type HealthRecordInput struct {
	Weight        *float64 `form:"weight" validate:"omitempty,gt=0,lt=2000"`
	BodyCondition string   `form:"body_condition" validate:"max=120"`
	Observations  string   `form:"observations" validate:"max=4000"`
	Allergies     string   `form:"allergies" validate:"max=1000"`
}

func (s *Service) AddHealthRecord(ctx context.Context, actor auth.Principal, animalID int64, in HealthRecordInput) (HealthRecord, error) {
	if err := s.ensureAnimal(ctx, animalID); err != nil {
		return HealthRecord{}, err
	}
	in.BodyCondition = strings.TrimSpace(in.BodyCondition)
	in.Observations = strings.TrimSpace(in.Observations)
	in.Allergies = strings.TrimSpace(in.Allergies)
	if err := validation.Struct(in); err != nil {
		return HealthRecord{}, err
	}
	if in.Weight == nil && in.BodyCondition == "" && in.Observations == "" && in.Allergies == "" {
		return HealthRecord{}, apperr.Invalid("", "record.empty")
	}

	now := s.now().UTC()
	h := HealthRecord{
		AnimalID:      animalID,
		Weight:        in.Weight,
		BodyCondition: in.BodyCondition,
		Observations:  in.Observations,
		Allergies:     in.Allergies,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := s.repo.AddHealthRecord(ctx, h)
	if err != nil {
		return HealthRecord{}, err
	}
	h.ID = id
	return h, nil
}

// CurrentHealthRecord devuelve nil (sin error) si el animal aún no tiene fichas.
func (s *Service) CurrentHealthRecord(ctx context.Context, animalID int64) (*HealthRecord, error) {
	h, err := s.repo.CurrentHealthRecord(ctx, animalID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (s *Service) HealthRecords(ctx context.Context, animalID int64) ([]HealthRecord, error) {
	return s.repo.ListHealthRecords(ctx, animalID)
}

type VaccineInput struct {
	Name            string     `form:"name" validate:"required,max=120"`
	ApplicationDate *time.Time `form:"application_date"`
	NextDose        *time.Time `form:"next_dose"`
	Batch           string     `form:"batch" validate:"max=60"`
	Observations    string     `form:"observations" validate:"max=4000"`
}

// AddVaccine registra una vacuna aplicada por el principal actual.
func (s *Service) AddVaccine(ctx context.Context, actor auth.Principal, animalID int64, in VaccineInput) (Vaccine, error) {
	if err := s.ensureAnimal(ctx, animalID); err != nil {
		return Vaccine{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Batch = strings.TrimSpace(in.Batch)
	in.Observations = strings.TrimSpace(in.Observations)
	if err := validation.Struct(in); err != nil {
		return Vaccine{}, err
	}

	now := s.now().UTC()
	applied := dayOr(in.ApplicationDate, now)
	if in.NextDose != nil && in.NextDose.Before(startOfDay(applied)) {
		return Vaccine{}, apperr.Invalid("next_dose", "validation.date_order")
	}

	v := Vaccine{
		AnimalID:        animalID,
		Name:            in.Name,
		ApplicationDate: applied,
		NextDose:        in.NextDose,
		Batch:           in.Batch,
		VeterinarianID:  actor.ID,
		Observations:    in.Observations,
		CreatedAt:       now,
	}
	id, err := s.repo.AddVaccine(ctx, v)
	if err != nil {
		return Vaccine{}, err
	}
	v.ID = id
	return v, nil
}

func (s *Service) Vaccines(ctx context.Context, animalID int64) ([]Vaccine, error) {
	return s.repo.ListVaccines(ctx, animalID)
}

type AdmitInput struct {
	EntryDate    *time.Time `form:"entry_date"`
	Reason       string     `form:"reason" validate:"required,max=500"`
	Diagnosis    string     `form:"diagnosis" validate:"max=4000"`
	Treatment    string     `form:"treatment" validate:"max=4000"`
	Procedures   string     `form:"procedures" validate:"max=4000"`
	Observations string     `form:"observations" validate:"max=4000"`
}

// Admit abre una internación. El animal queda en status hospital sea cual sea el previo.
func (s *Service) Admit(ctx context.Context, actor auth.Principal, animalID int64, in AdmitInput) (Hospitalization, error) {
	if err := s.ensureAnimal(ctx, animalID); err != nil {
		return Hospitalization{}, err
	}
	in.Reason = strings.TrimSpace(in.Reason)
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	in.Treatment = strings.TrimSpace(in.Treatment)
	in.Procedures = strings.TrimSpace(in.Procedures)
	in.Observations = strings.TrimSpace(in.Observations)
	if err := validation.Struct(in); err != nil {
		return Hospitalization{}, err
	}

	now := s.now().UTC()
	h := Hospitalization{
		AnimalID:       animalID,
		EntryDate:      dayOr(in.EntryDate, now),
		Reason:         in.Reason,
		Diagnosis:      in.Diagnosis,
		Treatment:      in.Treatment,
		Procedures:     in.Procedures,
		Observations:   in.Observations,
		VeterinarianID: actor.ID,
		CreatedAt:      now,
	}
	id, err := s.repo.Admit(ctx, h)
	if err != nil {
		return Hospitalization{}, err
	}
	h.ID = id
	return h, nil
}

type DischargeInput struct {
	ExitDate     *time.Time `form:"exit_date"`
	ExitStatus   string     `form:"exit_status" validate:"required,max=120"`
	Observations string     `form:"observations" validate:"max=4000"`
}

// Discharge cierra una internación abierta. El status del animal se cambia aparte,
// desde la edición de la ficha.
func (s *Service) Discharge(ctx context.Context, animalID, hospitalizationID int64, in DischargeInput) (Hospitalization, error) {
	h, err := s.repo.GetHospitalization(ctx, animalID, hospitalizationID)
	if err != nil {
		return Hospitalization{}, err
	}
	if !h.Open() {
		return Hospitalization{}, apperr.Invalid("exit_date", "hospitalization.closed")
	}
	in.ExitStatus = strings.TrimSpace(in.ExitStatus)
	in.Observations = strings.TrimSpace(in.Observations)
	if err := validation.Struct(in); err != nil {
		return Hospitalization{}, err
	}

	exit := dayOr(in.ExitDate, s.now().UTC())
	if exit.Before(startOfDay(h.EntryDate)) {
		return Hospitalization{}, apperr.Invalid("exit_date", "validation.date_order")
	}

	h.ExitDate = &exit
	h.ExitStatus = in.ExitStatus
	if in.Observations != "" {
		if h.Observations != "" {
			h.Observations += "\n"
		}
		h.Observations += in.Observations
	}
	if err := s.repo.Discharge(ctx, h); err != nil {
		return Hospitalization{}, err
	}
	return h, nil
}

func (s *Service) Hospitalizations(ctx context.Context, animalID int64) ([]Hospitalization, error) {
	return s.repo.ListHospitalizations(ctx, animalID)
}

type ProcedureInput struct {
	Name         string     `form:"name" validate:"required,max=200"`
	Date         *time.Time `form:"procedure_date"`
	Description  string     `form:"description" validate:"max=4000"`
	Observations string     `form:"observations" validate:"max=4000"`
}

func (s *Service) AddProcedure(ctx context.Context, actor auth.Principal, animalID int64, in ProcedureInput) (Procedure, error) {
	if err := s.ensureAnimal(ctx, animalID); err != nil {
		return Procedure{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Observations = strings.TrimSpace(in.Observations)
	if err := validation.Struct(in); err != nil {
		return Procedure{}, err
	}

	now := s.now().UTC()
	p := Procedure{
		AnimalID:       animalID,
		Name:           in.Name,
		Date:           dayOr(in.Date, now),
		Description:    in.Description,
		Observations:   in.Observations,
		VeterinarianID: actor.ID,
		CreatedAt:      now,
	}
	id, err := s.repo.AddProcedure(ctx, p)
	if err != nil {
		return Procedure{}, err
	}
	p.ID = id
	return p, nil
}

func (s *Service) Procedures(ctx context.Context, animalID int64) ([]Procedure, error) {
	return s.repo.ListProcedures(ctx, animalID)
}

// Consultations lista procedimientos de todos los animales, más recientes primero.
func (s *Service) Consultations(ctx context.Context, f ProcedureFilter) ([]Procedure, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Invalid("to", "validation.date_order")
	}
	if f.To != nil {
		// "to" es inclusivo: hasta el final de ese día.
		end := f.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.Limit <= 0 {
		f.Limit = defaultProcedureLimit
	}
	if f.Limit > maxProcedureLimit {
		f.Limit = maxProcedureLimit
	}
	return s.repo.ListRecentProcedures(ctx, f)
}

func (s *Service) ensureAnimal(ctx context.Context, animalID int64) error {
	if animalID <= 0 {
		return apperr.ErrNotFound
	}
	_, err := s.animals.Get(ctx, animalID)
	return err
}

// dayOr usa la fecha del formulario o, si no vino, el instante actual.
func dayOr(t *time.Time, now time.Time) time.Time {
	if t == nil {
		return now
	}
	return t.UTC()
}

func startOfDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
