package records

import (
	"context"
	"testing"
	"time"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type fakeAnimals map[int64]animals.Animal

func (f fakeAnimals) Get(_ context.Context, id int64) (animals.Animal, error) {
	a, ok := f[id]
	if !ok {
		return animals.Animal{}, apperr.ErrNotFound
	}
	return a, nil
}

type testRepo struct {
	animals fakeAnimals
	nextID  int64
	health  []HealthRecord
	vacc    []Vaccine
	hosp    map[int64]Hospitalization
	procs   []Procedure
	filter  ProcedureFilter
}

func newTestRepo(a fakeAnimals) *testRepo {
	return &testRepo{animals: a, hosp: map[int64]Hospitalization{}}
}

func (r *testRepo) id() int64 { r.nextID++; return r.nextID }

func (r *testRepo) AddHealthRecord(_ context.Context, h HealthRecord) (int64, error) {
	h.ID = r.id()
	r.health = append(r.health, h)
	return h.ID, nil
}

func (r *testRepo) CurrentHealthRecord(_ context.Context, animalID int64) (HealthRecord, error) {
	for i := len(r.health) - 1; i >= 0; i-- {
		if r.health[i].AnimalID == animalID {
			return r.health[i], nil
		}
	}
	return HealthRecord{}, apperr.ErrNotFound
}

func (r *testRepo) ListHealthRecords(_ context.Context, animalID int64) ([]HealthRecord, error) {
	out := make([]HealthRecord, 0)
	for _, h := range r.health {
		if h.AnimalID == animalID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *testRepo) AddVaccine(_ context.Context, v Vaccine) (int64, error) {
	v.ID = r.id()
	r.vacc = append(r.vacc, v)
	return v.ID, nil
}

func (r *testRepo) ListVaccines(_ context.Context, animalID int64) ([]Vaccine, error) {
	out := make([]Vaccine, 0)
	for _, v := range r.vacc {
		if v.AnimalID == animalID {
			out = append(out, v)
		}
	}
	return out, nil
}

// Admit imita la transacción: status y fila juntos.
func (r *testRepo) Admit(_ context.Context, h Hospitalization) (int64, error) {
	a, ok := r.animals[h.AnimalID]
	if !ok {
		return 0, apperr.ErrNotFound
	}
	a.Status = animals.StatusHospital
	r.animals[h.AnimalID] = a
	h.ID = r.id()
	r.hosp[h.ID] = h
	return h.ID, nil
}

func (r *testRepo) GetHospitalization(_ context.Context, animalID, id int64) (Hospitalization, error) {
	h, ok := r.hosp[id]
	if !ok || h.AnimalID != animalID {
		return Hospitalization{}, apperr.ErrNotFound
	}
	return h, nil
}

func (r *testRepo) Discharge(_ context.Context, h Hospitalization) error {
	r.hosp[h.ID] = h
	return nil
}

func (r *testRepo) ListHospitalizations(_ context.Context, animalID int64) ([]Hospitalization, error) {
	out := make([]Hospitalization, 0)
	for _, h := range r.hosp {
		if h.AnimalID == animalID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *testRepo) AddProcedure(_ context.Context, p Procedure) (int64, error) {
	p.ID = r.id()
	r.procs = append(r.procs, p)
	return p.ID, nil
}

func (r *testRepo) ListProcedures(_ context.Context, animalID int64) ([]Procedure, error) {
	out := make([]Procedure, 0)
	for _, p := range r.procs {
		if p.AnimalID == animalID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) ListRecentProcedures(_ context.Context, f ProcedureFilter) ([]Procedure, error) {
	r.filter = f
	return r.procs, nil
}

var (
	vet = auth.Principal{ID: 3, Name: "Ana", Role: auth.RoleVeterinary}
	now = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
)

func newTestService() (*Service, *testRepo) {
	a := fakeAnimals{1: {ID: 1, Name: "Rex", Status: animals.StatusShelter}}
	repo := newTestRepo(a)
	svc := NewService(repo, a)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// -------------------------
// Tests
// -------------------------

func TestAddHealthRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddHealthRecord(ctx, vet, 1, HealthRecordInput{})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "record.empty", ve.MessageID)

	w := 12.5
	h, err := svc.AddHealthRecord(ctx, vet, 1, HealthRecordInput{Weight: &w, Allergies: " dipirona "})
	require.NoError(t, err)
	assert.Equal(t, "dipirona", h.Allergies)
	assert.Equal(t, vet.ID, h.CreatedBy)

	cur, err := svc.CurrentHealthRecord(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, h.ID, cur.ID)

	_, err = svc.AddHealthRecord(ctx, vet, 42, HealthRecordInput{Allergies: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCurrentHealthRecord_NoneIsNil(t *testing.T) {
	svc, _ := newTestService()
	cur, err := svc.CurrentHealthRecord(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestAddVaccine_DateOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddVaccine(ctx, vet, 1, VaccineInput{Name: "V10", ApplicationDate: day("2025-06-10"), NextDose: day("2025-06-01")})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "next_dose", ve.Field)

	v, err := svc.AddVaccine(ctx, vet, 1, VaccineInput{Name: " V10 ", NextDose: day("2026-06-15")})
	require.NoError(t, err)
	assert.Equal(t, "V10", v.Name)
	assert.Equal(t, now, v.ApplicationDate)
	assert.Equal(t, vet.ID, v.VeterinarianID)
}

func TestAdmit_ForcesHospitalFromEveryStatus(t *testing.T) {
	for _, st := range animals.Statuses {
		t.Run(string(st), func(t *testing.T) {
			svc, repo := newTestService()
			a := repo.animals[1]
			a.Status = st
			repo.animals[1] = a

			h, err := svc.Admit(context.Background(), vet, 1, AdmitInput{Reason: "fracture"})
			require.NoError(t, err)
			assert.True(t, h.Open())
			assert.Equal(t, animals.StatusHospital, repo.animals[1].Status)
			assert.Len(t, repo.hosp, 1)
		})
	}
}

func TestAdmit_RequiresReason(t *testing.T) {
	svc, repo := newTestService()
	_, err := svc.Admit(context.Background(), vet, 1, AdmitInput{Reason: "   "})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "reason", ve.Field)
	assert.Equal(t, animals.StatusShelter, repo.animals[1].Status)
}

func TestDischarge_KeepsAnimalStatus(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	h, err := svc.Admit(ctx, vet, 1, AdmitInput{Reason: "fracture", EntryDate: day("2025-06-10"), Observations: "tala"})
	require.NoError(t, err)

	_, err = svc.Discharge(ctx, 1, h.ID, DischargeInput{ExitDate: day("2025-06-01"), ExitStatus: "ok"})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "validation.date_order", ve.MessageID)

	out, err := svc.Discharge(ctx, 1, h.ID, DischargeInput{ExitDate: day("2025-06-14"), ExitStatus: "recovered", Observations: "sem dor"})
	require.NoError(t, err)
	require.NotNil(t, out.ExitDate)
	assert.Equal(t, "recovered", out.ExitStatus)
	assert.Equal(t, "tala\nsem dor", out.Observations)
	assert.Equal(t, animals.StatusHospital, repo.animals[1].Status)

	_, err = svc.Discharge(ctx, 1, h.ID, DischargeInput{ExitStatus: "again"})
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "hospitalization.closed", ve.MessageID)

	_, err = svc.Discharge(ctx, 2, h.ID, DischargeInput{ExitStatus: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConsultations_Filter(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Consultations(ctx, ProcedureFilter{From: day("2025-06-10"), To: day("2025-06-01")})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)

	_, err = svc.Consultations(ctx, ProcedureFilter{To: day("2025-06-10"), Limit: 9999})
	require.NoError(t, err)
	require.NotNil(t, repo.filter.To)
	assert.Equal(t, time.Date(2025, 6, 10, 23, 59, 59, 999999999, time.UTC), *repo.filter.To)
	assert.Equal(t, maxProcedureLimit, repo.filter.Limit)
}

func TestAddProcedure(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.AddProcedure(ctx, vet, 1, ProcedureInput{Name: "Castração", Date: day("2025-06-12")})
	require.NoError(t, err)
	assert.Equal(t, *day("2025-06-12"), p.Date)

	_, err = svc.AddProcedure(ctx, vet, 1, ProcedureInput{})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}
